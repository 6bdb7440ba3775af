package docstore

import (
	"encoding/json"
	"fmt"
)

/*
Encode convert a typed record into a schemaless document via its JSON form

	@param v any - the typed record
	@returns the document
*/
func Encode(v any) (Document, error) {
	serialized, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("record does not serialize [%w]", err)
	}

	var doc Document
	if err := json.Unmarshal(serialized, &doc); err != nil {
		return nil, fmt.Errorf("record does not form a document [%w]", err)
	}
	return doc, nil
}

/*
Decode convert a schemaless document back into a typed record

	@param doc Document - the document
	@returns the typed record
*/
func Decode[T any](doc Document) (T, error) {
	var record T

	serialized, err := json.Marshal(doc)
	if err != nil {
		return record, fmt.Errorf("document does not serialize [%w]", err)
	}
	if err := json.Unmarshal(serialized, &record); err != nil {
		return record, fmt.Errorf("document does not match record shape [%w]", err)
	}
	return record, nil
}

/*
DecodeAll convert a document sequence into typed records

	@param docs []Document - the documents
	@returns the typed records in the same order
*/
func DecodeAll[T any](docs []Document) ([]T, error) {
	result := []T{}
	for _, doc := range docs {
		record, err := Decode[T](doc)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, nil
}

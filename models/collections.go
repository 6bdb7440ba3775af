package models

// Collection names shared by the database facade and the cloud sync adapter
const (
	// CollectionUserData the singleton user record collection
	CollectionUserData = "UserData"
	// CollectionEncryptedData the encrypted log entry collection
	CollectionEncryptedData = "EncryptedData"
	// CollectionDataLogHub the category hub collection
	CollectionDataLogHub = "DataLogHub"
)

// AllCollections every local collection, in dependency order
func AllCollections() []string {
	return []string{CollectionUserData, CollectionEncryptedData, CollectionDataLogHub}
}

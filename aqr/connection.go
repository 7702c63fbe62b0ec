package aqr

// SecondaryIndex names a wide-column secondary index and the attribute
// it is keyed on, as advertised by the connection's wide-column schema.
type SecondaryIndex struct {
	Name         string
	PartitionKey string
	SortKey      string // optional
}

// WideColumnSchema supplies the real partition/sort key attribute
// names backing a wide-column connection, and any secondary indexes.
type WideColumnSchema struct {
	PartitionKey    string
	SortKey         string // optional
	SecondaryIndexes []SecondaryIndex
}

// Credentials is host-supplied and opaque to the core beyond its
// presence; the core never reads these fields itself.
type Credentials struct {
	Username string
	Password string
	Token    string
}

// KeyValueOptions supplies the facts about a key-value connection the
// AQR alone cannot express: whether table already names a hash key,
// whether the runtime advertises a secondary-search module, and the
// default scan COUNT hint to use when a query carries no LIMIT. This
// mirrors package keyvalue's own Options one-for-one; it lives here
// (rather than keyvalue.Options itself) so that ConnectionDescriptor
// can carry it without aqr importing keyvalue.
type KeyValueOptions struct {
	AddressesHash   bool
	HasSearchModule bool
	ScanCount       int
}

// ConnectionDescriptor identifies a registered backend handle.
type ConnectionDescriptor struct {
	ID       string
	Name     string
	Kind     BackendKind
	Host     string
	Port     int
	Database string

	Credentials *Credentials
	Region      string
	WideColumn  *WideColumnSchema
	KeyValue    *KeyValueOptions
}

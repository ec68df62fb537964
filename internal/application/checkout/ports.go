package checkout

// IDGenerator issues opaque order identifiers.
type IDGenerator interface {
	NewID() string
}

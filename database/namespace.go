package database

// Backend is a key-value store partitioned by namespace.
type Backend interface {
	Get(namespace int64, key string) (string, bool, error)
	Set(namespace int64, key, value string) error
	Delete(namespace int64, key string) error
	Namespaces() ([]int64, error)
	Close() error
}

var (
	_ Backend = (*DB)(nil)
	_ Backend = (*Memory)(nil)
)

// Namespace is a Backend bound to one namespace, typically a chat ID.
type Namespace struct {
	backend Backend
	ns      int64
}

// NewNamespace binds backend to ns.
func NewNamespace(backend Backend, ns int64) *Namespace {
	return &Namespace{backend: backend, ns: ns}
}

func (n *Namespace) Get(key string) (string, bool, error) {
	return n.backend.Get(n.ns, key)
}

func (n *Namespace) Set(key, value string) error {
	return n.backend.Set(n.ns, key, value)
}

func (n *Namespace) Delete(key string) error {
	return n.backend.Delete(n.ns, key)
}

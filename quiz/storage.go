package quiz

// Storage is the durable key-value port the quiz state is persisted to.
// Get reports ok=false when the key is absent.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// Keys under which progress is persisted.
const (
	ScoresKey = "pikt_scores"
	QueueKey  = "queue"
)

package reminder

import (
	"iter"
	"time"

	"github.com/kter/serverless-sample/internal/model"
)

// DefaultWindow is the lookahead used when none is configured.
const DefaultWindow = 24 * time.Hour

// Eligible yields the todos that are not completed and whose due time falls
// in [now, now+window]. Todos without a due time never qualify. The sequence
// is evaluated lazily over the given slice; call it again for fresh results.
func Eligible(todos []model.Todo, now time.Time, window time.Duration) iter.Seq[model.Todo] {
	return func(yield func(model.Todo) bool) {
		for _, todo := range todos {
			if todo.Completed || !todo.HasDueAt() {
				continue
			}
			until := todo.DueAt.Sub(now)
			if until < 0 || until > window {
				continue
			}
			if !yield(todo) {
				return
			}
		}
	}
}

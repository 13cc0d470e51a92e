package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthEvents counts register/login/logout outcomes.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_auth_events_total",
		Help: "Authentication events by type and outcome",
	}, []string{"event", "outcome"})

	// PostMutations counts post create/edit/delete attempts by outcome.
	PostMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_post_mutations_total",
		Help: "Post mutations by action and outcome",
	}, []string{"action", "outcome"})

	// CommentsCreated counts stored comments.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "journal_comments_created_total",
		Help: "Total number of comments created",
	})

	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})
)

// Outcome labels shared by the counters above.
const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

package root

import (
	"github.com/google/uuid"
	"github.com/iesplan/ies_core/internal/pkg/catalog"
	"github.com/iesplan/ies_core/internal/pkg/dispatch"
	"github.com/iesplan/ies_core/internal/pkg/msg"
	"github.com/iesplan/ies_core/internal/pkg/scenario"
)

// System is the root node of the planning service: the catalog, the solve
// pipeline, and the publisher feeding result sinks.
type System struct {
	pid        uuid.UUID
	publisher  *msg.PubSub
	dispatcher dispatch.Dispatcher
}

// NewSystem assembles a System around a configured dispatcher.
func NewSystem(d dispatch.Dispatcher) (System, error) {
	pid, err := uuid.NewUUID()
	if err != nil {
		return System{}, err
	}
	return System{
		pid:        pid,
		publisher:  msg.NewPublisher(pid),
		dispatcher: d,
	}, nil
}

// PID is a getter for the system PID.
func (s *System) PID() uuid.UUID {
	return s.pid
}

// Catalog returns the archetype registry.
func (s *System) Catalog() catalog.Catalog {
	return s.dispatcher.Catalog()
}

// Subscribe registers a sink for a topic.
func (s *System) Subscribe(pid uuid.UUID, topic msg.Topic) (<-chan msg.Msg, error) {
	return s.publisher.Subscribe(pid, topic)
}

// Unsubscribe drops a sink.
func (s *System) Unsubscribe(pid uuid.UUID) {
	s.publisher.Unsubscribe(pid)
}

// PublishConfig broadcasts the registered archetype names on the config
// topic so late-joining sinks can discover the device vocabulary.
func (s *System) PublishConfig() {
	s.publisher.Publish(msg.Config, s.dispatcher.Catalog().Types())
}

// Solve runs one dispatch optimization and publishes the completed solution
// to all subscribed sinks. Errors propagate to the caller unpublished.
func (s *System) Solve(reqs []catalog.Request, scn scenario.Scenario, mode dispatch.Mode) (dispatch.Solution, error) {
	sol, err := s.dispatcher.Run(reqs, scn, mode)
	if err != nil {
		return dispatch.Solution{}, err
	}
	s.publisher.Publish(msg.Solution, sol)
	return sol, nil
}

// Stop closes all subscriber channels.
func (s *System) Stop() {
	s.publisher.Stop()
}

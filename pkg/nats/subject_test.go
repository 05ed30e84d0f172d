package nats

import (
	"testing"

	"wizzmo-be/pkg/events"

	"github.com/stretchr/testify/assert"
)

func TestSubjectForRowChange(t *testing.T) {
	change := events.RowChange{Table: "messages", Type: events.ChangeDelete}

	assert.Equal(t, "changes.messages.delete", Subject(change))
}

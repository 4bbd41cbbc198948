package loom

import (
	"github.com/loom-ecs/loom/internal/coltable"
)

// Component represents a data attribute or state that can be attached to
// entities. Components are the unit a Registry orders, a View requests,
// and a Filter tests for presence; an archetype is, precisely, the set of
// components shared by every entity it stores.
type Component interface {
	coltable.ElementType
}

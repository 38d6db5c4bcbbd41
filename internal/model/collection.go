package model

import (
	"encoding/json"
	"reflect"
)

// Collection is an ordered set of tasks keyed by id. A Collection is never
// modified after construction; With and Without return new values.
type Collection struct {
	order []string
	byID  map[string]Task
}

func NewCollection(tasks []Task) Collection {
	c := Collection{
		order: make([]string, 0, len(tasks)),
		byID:  make(map[string]Task, len(tasks)),
	}
	for _, task := range tasks {
		if _, ok := c.byID[task.ID]; !ok {
			c.order = append(c.order, task.ID)
		}
		c.byID[task.ID] = task.Clone()
	}
	return c
}

func (c Collection) Len() int {
	return len(c.order)
}

func (c Collection) Get(id string) (Task, bool) {
	task, ok := c.byID[id]
	if !ok {
		return Task{}, false
	}
	return task.Clone(), true
}

func (c Collection) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Tasks returns the tasks in insertion order. The result is owned by the caller.
func (c Collection) Tasks() []Task {
	out := make([]Task, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id].Clone())
	}
	return out
}

// With returns a collection where task replaces the entry with the same id,
// or is appended when the id is new.
func (c Collection) With(task Task) Collection {
	next := c.shallowCopy(len(c.order) + 1)
	if _, ok := next.byID[task.ID]; !ok {
		next.order = append(next.order, task.ID)
	}
	next.byID[task.ID] = task.Clone()
	return next
}

func (c Collection) Without(id string) Collection {
	if !c.Has(id) {
		return c
	}
	next := Collection{
		order: make([]string, 0, len(c.order)),
		byID:  make(map[string]Task, len(c.byID)),
	}
	for _, existing := range c.order {
		if existing == id {
			continue
		}
		next.order = append(next.order, existing)
		next.byID[existing] = c.byID[existing]
	}
	return next
}

// Clone returns a deep copy sharing no memory with c.
func (c Collection) Clone() Collection {
	next := Collection{
		order: append([]string(nil), c.order...),
		byID:  make(map[string]Task, len(c.byID)),
	}
	for id, task := range c.byID {
		next.byID[id] = task.Clone()
	}
	return next
}

func (c Collection) Equal(other Collection) bool {
	if c.Len() != other.Len() {
		return false
	}
	return reflect.DeepEqual(c.Tasks(), other.Tasks())
}

func (c Collection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Tasks())
}

func (c *Collection) UnmarshalJSON(data []byte) error {
	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return err
	}
	*c = NewCollection(tasks)
	return nil
}

// shallowCopy shares Task values with c. Tasks are stored by value and
// never mutated in place, so sharing them is safe.
func (c Collection) shallowCopy(capacity int) Collection {
	next := Collection{
		order: make([]string, len(c.order), capacity),
		byID:  make(map[string]Task, capacity),
	}
	copy(next.order, c.order)
	for id, task := range c.byID {
		next.byID[id] = task
	}
	return next
}

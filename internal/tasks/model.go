package tasks

// MaxTitleLen is the longest title, in characters, the service accepts.
const MaxTitleLen = 200

// Task is a single to-do item. IDs are assigned by the caller on creation.
type Task struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// NextID returns max(existing ids, 0) + 1.
func NextID(list []Task) int64 {
	var max int64
	for _, t := range list {
		if t.ID > max {
			max = t.ID
		}
	}
	return max + 1
}

// Remaining counts tasks that are not completed.
func Remaining(list []Task) int {
	n := 0
	for _, t := range list {
		if !t.Completed {
			n++
		}
	}
	return n
}

// IndexOf returns the position of the task with the given id, or -1.
func IndexOf(list []Task, id int64) int {
	for i, t := range list {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy of list that shares no backing array with it.
func Clone(list []Task) []Task {
	out := make([]Task, len(list))
	copy(out, list)
	return out
}

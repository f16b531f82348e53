package models

// Collection groups documents under a human label. IndexName is the value written
// to the search engine's collection field and used as a query filter.
type Collection struct {
	UID       int64  `json:"uid" db:"uid"`
	PID       int64  `json:"pid" db:"pid"`
	Label     string `json:"label" db:"label"`
	IndexName string `json:"index_name" db:"index_name"`
}

// Library is the institution owning a document.
type Library struct {
	UID       int64  `json:"uid" db:"uid"`
	Label     string `json:"label" db:"label"`
	IndexName string `json:"index_name" db:"index_name"`
}

// Core is the relational record of a search core. IndexName is the engine-side core name.
type Core struct {
	UID       int64  `json:"uid" db:"uid"`
	PID       int64  `json:"pid" db:"pid"`
	Label     string `json:"label" db:"label"`
	IndexName string `json:"index_name" db:"index_name"`
}

// IndexNames returns the index names of cs in order.
func IndexNames(cs []*Collection) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		if c != nil && c.IndexName != "" {
			out = append(out, c.IndexName)
		}
	}
	return out
}

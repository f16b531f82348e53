package solr

import "context"

// Terms returns the indexed terms of fields with their document frequency. A
// term present in several fields reports the highest frequency. Without fields
// the title and page fulltext dictionaries are read.
func (c *Client) Terms(ctx context.Context, fields ...string) (map[string]int, error) {
	if err := c.bound("terms"); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		fields = []string{FieldTitle, FieldFulltext}
	}
	terms := make(map[string]int)
	for _, field := range fields {
		if err := ctx.Err(); err != nil {
			return nil, wrap("terms", c.core.name, err)
		}
		dict, err := c.core.index.FieldDict(field)
		if err != nil {
			return nil, wrap("terms", c.core.name, err)
		}
		for {
			entry, err := dict.Next()
			if err != nil {
				_ = dict.Close()
				return nil, wrap("terms", c.core.name, err)
			}
			if entry == nil {
				break
			}
			if n := int(entry.Count); n > terms[entry.Term] {
				terms[entry.Term] = n
			}
		}
		if err := dict.Close(); err != nil {
			return nil, wrap("terms", c.core.name, err)
		}
	}
	return terms, nil
}

package solr

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"go.uber.org/zap"
)

// Client is a handle bound to one core, or to none when the core was missing.
type Client struct {
	core          *core
	logger        *zap.Logger
	collapseLimit int
}

// Result is the raw response of a query.
type Result struct {
	// Documents holds the fetched records in engine order.
	Documents []Record
	// NumFound is the total number of matching records, independent of paging.
	NumFound int
}

// Core returns the bound core name, or "" for an unbound client.
func (c *Client) Core() string {
	if c == nil || c.core == nil {
		return ""
	}
	return c.core.name
}

func (c *Client) bound(op string) error {
	if c.Core() == "" {
		return wrap(op, "", ErrCoreNotFound)
	}
	return nil
}

// Submit validates records and queues them for the next Commit. Nothing becomes
// visible to queries before Commit. A record with an existing id replaces it.
// On error nothing is queued.
func (c *Client) Submit(ctx context.Context, records []Record) error {
	if err := c.bound(OpSubmit); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return wrap(OpSubmit, c.core.name, err)
	}
	if err := validateAll(records); err != nil {
		return err
	}
	staged := c.core.index.NewBatch()
	for i := range records {
		if err := staged.Index(records[i].ID, records[i].fields()); err != nil {
			return wrap(OpSubmit, c.core.name, err)
		}
	}
	c.core.mu.Lock()
	c.core.batch.Merge(staged)
	c.core.mu.Unlock()
	c.logger.Debug("Submitted records", zap.String("core", c.core.name), zap.Int("count", len(records)))
	return nil
}

// Replace swaps every committed record of document uid for records in one
// private batch, applied immediately. Records queued by Submit are not touched.
// Either all of it becomes visible or, on error, nothing changes.
func (c *Client) Replace(ctx context.Context, uid int64, records []Record) error {
	if err := c.bound(OpReplace); err != nil {
		return err
	}
	if err := validateAll(records); err != nil {
		return err
	}
	for i := range records {
		if records[i].UID != uid {
			return fmt.Errorf("%w: record %s belongs to uid %d, not %d", ErrInvalidRecord, records[i].ID, records[i].UID, uid)
		}
	}
	existing, err := c.idsOf(ctx, uid)
	if err != nil {
		return wrap(OpReplace, c.core.name, err)
	}
	staged := c.core.index.NewBatch()
	for _, id := range existing {
		staged.Delete(id)
	}
	for i := range records {
		if err := staged.Index(records[i].ID, records[i].fields()); err != nil {
			return wrap(OpReplace, c.core.name, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return wrap(OpReplace, c.core.name, err)
	}
	c.core.mu.Lock()
	defer c.core.mu.Unlock()
	if err := c.core.index.Batch(staged); err != nil {
		return wrap(OpReplace, c.core.name, err)
	}
	c.logger.Debug("Replaced document records",
		zap.String("core", c.core.name),
		zap.Int64("uid", uid),
		zap.Int("deleted", len(existing)),
		zap.Int("indexed", len(records)))
	return nil
}

// validateAll checks every record and rejects ids used twice.
func validateAll(records []Record) error {
	ids := make(map[string]struct{}, len(records))
	for i := range records {
		if err := records[i].validate(); err != nil {
			return err
		}
		if _, dup := ids[records[i].ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidRecord, records[i].ID)
		}
		ids[records[i].ID] = struct{}{}
	}
	return nil
}

// Commit applies every queued submit and delete in one batch.
func (c *Client) Commit(ctx context.Context) error {
	if err := c.bound(OpCommit); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return wrap(OpCommit, c.core.name, err)
	}
	c.core.mu.Lock()
	defer c.core.mu.Unlock()
	pending := c.core.batch.Size()
	if pending == 0 {
		return nil
	}
	if err := c.core.index.Batch(c.core.batch); err != nil {
		c.core.batch.Reset()
		return wrap(OpCommit, c.core.name, err)
	}
	c.core.batch = c.core.index.NewBatch()
	c.logger.Debug("Committed", zap.String("core", c.core.name), zap.Int("operations", pending))
	return nil
}

// DeleteByUID queues the removal of every committed record of a document.
func (c *Client) DeleteByUID(ctx context.Context, uid int64) error {
	if err := c.bound(OpDelete); err != nil {
		return err
	}
	ids, err := c.idsOf(ctx, uid)
	if err != nil {
		return wrap(OpDelete, c.core.name, err)
	}
	c.core.mu.Lock()
	defer c.core.mu.Unlock()
	for _, id := range ids {
		c.core.batch.Delete(id)
	}
	return nil
}

// idsOf returns the ids of the committed records of document uid.
func (c *Client) idsOf(ctx context.Context, uid int64) ([]string, error) {
	total, err := c.core.index.DocCount()
	if err != nil || total == 0 {
		return nil, err
	}
	req := bleve.NewSearchRequestOptions(Number(FieldUID, uid).query(), int(total), 0, false)
	res, err := c.core.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Query runs q against committed records.
func (c *Client) Query(ctx context.Context, q Query) (*Result, error) {
	if err := c.bound(OpQuery); err != nil {
		return nil, err
	}
	req := bleve.NewSearchRequest(q.build())
	req.Fields = []string{"*"}
	if q.CollapseUID {
		req.From = 0
		req.Size = c.collapseLimit
	} else {
		req.From = q.Start
		req.Size = q.rows()
	}
	if len(q.Sort) > 0 {
		req.SortBy(q.Sort)
	}

	res, err := c.core.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, wrap(OpQuery, c.core.name, err)
	}
	docs := make([]Record, 0, len(res.Hits))
	for _, hit := range res.Hits {
		docs = append(docs, recordFromFields(hit.ID, hit.Score, hit.Fields))
	}
	if q.CollapseUID {
		docs = page(collapse(docs), q.Start, q.rows())
	}
	c.logger.Debug("Query",
		zap.String("core", c.core.name),
		zap.String("q", q.Q),
		zap.Bool("fulltext", q.Fulltext),
		zap.Int("filters", len(q.Filters)),
		zap.Uint64("total", res.Total),
		zap.Int("returned", len(docs)))
	return &Result{Documents: docs, NumFound: int(res.Total)}, nil
}

// Count returns the number of committed records in the core.
func (c *Client) Count() (uint64, error) {
	if err := c.bound("count"); err != nil {
		return 0, err
	}
	n, err := c.core.index.DocCount()
	if err != nil {
		return 0, wrap("count", c.core.name, err)
	}
	return n, nil
}

package hh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// PageHandler observes each fetched listing page before its items are
// yielded, e.g. for raw-page archiving. It may be nil.
type PageHandler func(page int, raw json.RawMessage) error

// ItemHandler receives one raw vacancy at a time, in provider order. A
// non-nil error aborts the listing; per-record failures must be absorbed by
// the handler itself.
type ItemHandler func(raw json.RawMessage) error

// ListVacancies walks the vacancy listing page by page. It stops when a page
// fetch yields no data, when a page comes back empty, or when the hard page
// cap is reached. The walk is single-pass: page counter and running total are
// local to the call.
func (c *Client) ListVacancies(ctx context.Context, search SearchParameters, onPage PageHandler, onItem ItemHandler) error {
	if err := search.Validate(); err != nil {
		return fmt.Errorf("invalid search parameters: %w", err)
	}

	yielded := 0
	for page := 0; page < c.cfg.MaxPages; page++ {
		query := search.Values()
		query.Set("page", strconv.Itoa(page))
		query.Set("per_page", strconv.Itoa(c.cfg.PerPage))

		raw, err := c.Get(ctx, c.cfg.VacanciesEndpoint, query)
		if err != nil {
			if errors.Is(err, ErrNoData) {
				c.logger.Warn("listing fetch failed, stopping",
					zap.Int("page", page),
					zap.Error(err))
				return nil
			}
			return err
		}

		var listing ListingPage
		if err := json.Unmarshal(raw, &listing); err != nil {
			c.logger.Error("undecodable listing page, stopping",
				zap.Int("page", page),
				zap.Error(err))
			return nil
		}

		if page == 0 {
			// The reported total is diagnostic only; the hard page cap
			// bounds the walk regardless.
			c.logger.Info("listing opened",
				zap.Int("found", listing.Found),
				zap.Int("pages", listing.Pages),
				zap.Int("max_pages", c.cfg.MaxPages))
		}

		if len(listing.Items) == 0 {
			c.logger.Info("listing exhausted",
				zap.Int("page", page),
				zap.Int("yielded", yielded))
			return nil
		}

		if onPage != nil {
			if err := onPage(page, raw); err != nil {
				return fmt.Errorf("page handler: %w", err)
			}
		}

		for _, item := range listing.Items {
			if err := onItem(item); err != nil {
				return fmt.Errorf("item handler: %w", err)
			}
			yielded++
		}
	}

	c.logger.Info("page cap reached",
		zap.Int("max_pages", c.cfg.MaxPages),
		zap.Int("yielded", yielded))
	return nil
}

// Areas fetches the recursively nested region tree.
func (c *Client) Areas(ctx context.Context) ([]AreaNode, error) {
	raw, err := c.Get(ctx, c.cfg.AreasEndpoint, nil)
	if err != nil {
		return nil, err
	}
	var tree []AreaNode
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("decode area tree: %w", err)
	}
	return tree, nil
}

// ProfessionalRoles fetches the role catalog.
func (c *Client) ProfessionalRoles(ctx context.Context) (RoleCatalog, error) {
	raw, err := c.Get(ctx, c.cfg.RolesEndpoint, nil)
	if err != nil {
		return RoleCatalog{}, err
	}
	var catalog RoleCatalog
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return RoleCatalog{}, fmt.Errorf("decode role catalog: %w", err)
	}
	return catalog, nil
}

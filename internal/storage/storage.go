package storage

import "twapScope/internal/model"

// Storage defines a sink for consulted quotes.
type Storage interface {
	PutQuoteBatch(quotes []model.QuoteRecord) error
}

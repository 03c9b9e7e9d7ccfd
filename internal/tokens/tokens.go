// Package tokens provides token metadata for auctions that lack it.
package tokens

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"solverDriver/internal/eth"
)

// Metadata is what the driver needs to know about a token besides prices.
type Metadata struct {
	Decimals *uint8
	Symbol   *string
}

// Complete reports whether both fields are known.
func (m Metadata) Complete() bool {
	return m.Decimals != nil && m.Symbol != nil
}

var (
	ethDecimals uint8 = 18
	ethSymbol         = "ETH"
)

// Cache caches token metadata by address.
type Cache struct {
	mu   sync.RWMutex
	data map[common.Address]Metadata
}

func NewCache() *Cache {
	return &Cache{data: make(map[common.Address]Metadata)}
}

func (c *Cache) Get(address common.Address) (Metadata, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *Cache) Set(address common.Address, meta Metadata) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// Store persists metadata across restarts.
type Store interface {
	LoadTokens(ctx context.Context, chainID uint64, addresses []common.Address) (map[common.Address]Metadata, error)
	UpsertTokens(ctx context.Context, chainID uint64, tokens map[common.Address]Metadata) error
}

// Reader fetches metadata from chain.
type Reader interface {
	Read(ctx context.Context, token common.Address) (Metadata, error)
}

// Fetcher resolves metadata from the cache, then the store, then the chain.
type Fetcher struct {
	chainID uint64
	cache   *Cache
	store   Store
	reader  Reader
	logger  *zap.Logger
}

// NewFetcher builds a fetcher. store and reader may be nil.
func NewFetcher(chainID uint64, store Store, reader Reader, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		chainID: chainID,
		cache:   NewCache(),
		store:   store,
		reader:  reader,
		logger:  logger,
	}
}

// Get returns metadata for the addresses it could resolve. Lookup failures
// are logged and the token is left out.
func (f *Fetcher) Get(ctx context.Context, addresses []common.Address) map[common.Address]Metadata {
	out := make(map[common.Address]Metadata, len(addresses))
	var missing []common.Address
	for _, address := range addresses {
		if address == eth.ETH {
			out[address] = Metadata{Decimals: &ethDecimals, Symbol: &ethSymbol}
			continue
		}
		if meta, ok := f.cache.Get(address); ok {
			out[address] = meta
			continue
		}
		missing = append(missing, address)
	}
	if len(missing) == 0 {
		return out
	}

	if f.store != nil {
		stored, err := f.store.LoadTokens(ctx, f.chainID, missing)
		if err != nil {
			f.logger.Warn("load token metadata failed", zap.Int("tokens", len(missing)), zap.Error(err))
		}
		remaining := missing[:0]
		for _, address := range missing {
			if meta, ok := stored[address]; ok && meta.Complete() {
				f.cache.Set(address, meta)
				out[address] = meta
				continue
			}
			remaining = append(remaining, address)
		}
		missing = remaining
	}

	if f.reader == nil || len(missing) == 0 {
		return out
	}

	fetched := make(map[common.Address]Metadata, len(missing))
	for _, address := range missing {
		if ctx.Err() != nil {
			break
		}
		meta, err := f.reader.Read(ctx, address)
		if err != nil {
			f.logger.Warn("token metadata fetch failed", zap.String("token", address.Hex()), zap.Error(err))
			continue
		}
		f.cache.Set(address, meta)
		fetched[address] = meta
		out[address] = meta
	}

	if f.store != nil && len(fetched) > 0 {
		if err := f.store.UpsertTokens(ctx, f.chainID, fetched); err != nil {
			f.logger.Warn("store token metadata failed", zap.Int("tokens", len(fetched)), zap.Error(err))
		}
	}
	return out
}

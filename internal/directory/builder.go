package directory

import (
	"context"
	"encoding/json"
	"time"

	"managerconsole/common_library/logging"
	"managerconsole/internal/models"

	"go.uber.org/zap"
)

const cacheKey = "staff-directory"

type Source interface {
	StaffDirectory(ctx context.Context) ([]models.Staff, error)
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// Builder produces the list of staff a manager can assign. The dedicated
// directory endpoint is preferred; when it fails the list is derived from the
// reports already loaded and the failure is only logged.
type Builder struct {
	source Source
	cache  Cache
	ttl    time.Duration
	logger *logging.Logger
}

func NewBuilder(source Source, cache Cache, ttl time.Duration, logger *logging.Logger) *Builder {
	return &Builder{source: source, cache: cache, ttl: ttl, logger: logger}
}

func (b *Builder) Build(ctx context.Context, reports []models.Report) []models.Staff {
	logger := logging.FromContextOr(ctx, b.logger)

	if b.cache != nil {
		if data, ok := b.cache.Get(ctx, cacheKey); ok {
			var cached []models.Staff
			if err := json.Unmarshal(data, &cached); err == nil {
				return Dedup(cached)
			}
			b.cache.Delete(ctx, cacheKey)
		}
	}

	staff, err := b.source.StaffDirectory(ctx)
	if err != nil {
		logger.Warn(ctx, "staff directory unavailable, deriving from reports", zap.Error(err))
		return FromReports(reports)
	}
	staff = Dedup(staff)

	if b.cache != nil && b.ttl > 0 {
		if data, err := json.Marshal(staff); err == nil {
			b.cache.Set(ctx, cacheKey, data, b.ttl)
		}
	}
	return staff
}

// Invalidate drops the cached directory.
func (b *Builder) Invalidate(ctx context.Context) {
	if b.cache != nil {
		b.cache.Delete(ctx, cacheKey)
	}
}

// FromReports projects (staffID, staffID) pairs out of reports that carry a
// staff identifier.
func FromReports(reports []models.Report) []models.Staff {
	staff := make([]models.Staff, 0, len(reports))
	for _, r := range reports {
		if !r.HasStaff() {
			continue
		}
		staff = append(staff, models.Staff{ID: *r.StaffID, Name: *r.StaffID})
	}
	return Dedup(staff)
}

// Dedup keeps the first entry per identifier and drops entries without one.
func Dedup(staff []models.Staff) []models.Staff {
	seen := make(map[string]struct{}, len(staff))
	out := make([]models.Staff, 0, len(staff))
	for _, s := range staff {
		if s.ID == "" {
			continue
		}
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}

// EnrichReports returns a copy of reports with StaffName filled from the
// directory where the payload did not carry one.
func EnrichReports(reports []models.Report, staff []models.Staff) []models.Report {
	names := make(map[string]string, len(staff))
	for _, s := range staff {
		names[s.ID] = s.Name
	}

	out := make([]models.Report, len(reports))
	for i, r := range reports {
		if r.StaffName == "" && r.HasStaff() {
			if name, ok := names[*r.StaffID]; ok {
				r.StaffName = name
			}
		}
		out[i] = r
	}
	return out
}

package cache

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/phishguard/internal/common"
	"github.com/dmitrijs2005/phishguard/internal/models"
	"github.com/dmitrijs2005/phishguard/internal/repositories/kv"
)

func (s *Store) ScanData(ctx context.Context) (models.ScanData, error) {
	return load[models.ScanData](ctx, s, s.kv, KeyScanData)
}

// SetCurrentSite replaces the in-progress/last site without touching history.
func (s *Store) SetCurrentSite(ctx context.Context, site models.CurrentSite) error {
	return s.updateScanData(ctx, func(d *models.ScanData) {
		d.CurrentSite = site
	})
}

// RecordScan stores a final verdict: it becomes the current site, is
// front-inserted into recent scans and, when malicious, into suspicious sites.
// A transient verdict is rejected with common.ErrVerdictNotFinal.
func (s *Store) RecordScan(ctx context.Context, site models.CurrentSite) error {
	if !site.Status.IsFinal() {
		return fmt.Errorf("%w: %q", common.ErrVerdictNotFinal, site.Status)
	}
	return s.updateScanData(ctx, func(d *models.ScanData) {
		d.CurrentSite = site
		d.PushRecent(models.ScanRecord{
			Domain:    site.Domain,
			Verdict:   site.Status,
			Timestamp: s.clock.Now().UnixMilli(),
		}, common.MaxRecentScans)
		if site.Status == models.VerdictMalicious {
			d.PushSuspicious(site.Domain, common.MaxRecentScans)
		}
	})
}

func (s *Store) updateScanData(ctx context.Context, fn func(*models.ScanData)) error {
	return s.kv.Atomic(ctx, func(ctx context.Context, r kv.Repository) error {
		d, err := load[models.ScanData](ctx, s, r, KeyScanData)
		if err != nil {
			return err
		}
		fn(&d)
		return saveJSON(ctx, r, KeyScanData, d)
	})
}

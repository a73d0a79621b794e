package scanner

import "log/slog"

// rebalanceSelected keeps the selected rotation inside the configured band.
// Every active server enters the cycle selected, so the usual move is
// demoting the slowest surplus; promotion only matters on thin cycles where
// few actives survived.
func (s *Scanner) rebalanceSelected(log *slog.Logger) error {
	count, err := s.store.CountSelectedActive()
	if err != nil {
		return err
	}

	switch {
	case count > s.cfg.MaxSelected:
		ids, err := s.store.DemotionCandidates(count - s.cfg.MaxSelected)
		if err != nil {
			return err
		}
		if err := s.store.SetSelected(ids, false); err != nil {
			return err
		}
		log.Info("selection_rebalanced", "selected", count-len(ids), "demoted", len(ids))
	case count < s.cfg.MinSelected:
		ids, err := s.store.PromotionCandidates(s.cfg.MinSelected - count)
		if err != nil {
			return err
		}
		if err := s.store.SetSelected(ids, true); err != nil {
			return err
		}
		log.Info("selection_rebalanced", "selected", count+len(ids), "promoted", len(ids))
	default:
		log.Debug("selection_within_band", "selected", count)
	}
	return nil
}

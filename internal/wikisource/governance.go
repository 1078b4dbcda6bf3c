package wikisource

import (
	"strings"
	"time"

	"github.com/beacon-labs/wikimind/internal/types"
)

// ParseGovernance derives GovernanceInfo from a page's label set using the
// conventions in spec §6: owner:, reviewed_by:, reviewed_at:,
// classification:, doc_type:.
func ParseGovernance(labels []string) types.GovernanceInfo {
	info := types.GovernanceInfo{Classification: types.ClassificationInternal}
	for _, label := range labels {
		key, value, ok := splitLabel(label)
		if !ok {
			info.Unparseable = append(info.Unparseable, label)
			continue
		}
		switch key {
		case "owner":
			info.Owner = value
		case "reviewed_by":
			info.ReviewedBy = value
		case "reviewed_at":
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				info.ReviewedAt = &t
			} else {
				info.Unparseable = append(info.Unparseable, label)
			}
		case "classification":
			switch types.Classification(value) {
			case types.ClassificationPublic, types.ClassificationInternal, types.ClassificationConfidential:
				info.Classification = types.Classification(value)
			default:
				info.Unparseable = append(info.Unparseable, label)
			}
		case "doc_type":
			info.DocType = value
		}
	}
	return info
}

func splitLabel(label string) (key, value string, ok bool) {
	idx := strings.Index(label, ":")
	if idx < 0 {
		return "", "", false
	}
	return label[:idx], label[idx+1:], true
}

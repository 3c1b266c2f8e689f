package api

import (
	"fmt"

	apitype "github.com/codeoc/dashboard/pkg/apis/api"
	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
)

// ComputeSatisfaction builds the 2x2 satisfaction matrix of thumb bucket by
// verification bucket. Neutral conversations count towards a bucket's total
// but not towards its satisfaction rate.
func ComputeSatisfaction(convs []v1.JoinedConversation) apitype.SatisfactionMatrix {
	var supported, unsupported bucketCounts
	for _, c := range convs {
		if c.Verified {
			supported.add(c.Thumb)
		} else {
			unsupported.add(c.Thumb)
		}
	}
	return apitype.SatisfactionMatrix{
		Supported:   supported.bucket(),
		Unsupported: unsupported.bucket(),
	}
}

type bucketCounts struct {
	total, positive, negative, neutral int
}

func (b *bucketCounts) add(thumb v1.Thumb) {
	b.total++
	switch thumb {
	case v1.ThumbUp:
		b.positive++
	case v1.ThumbDown:
		b.negative++
	default:
		b.neutral++
	}
}

func (b bucketCounts) bucket() apitype.SatisfactionBucket {
	result := apitype.SatisfactionBucket{
		Total:    b.total,
		Positive: cell(b.positive, b.total),
		Negative: cell(b.negative, b.total),
		Neutral:  b.neutral,
	}
	if rated := b.positive + b.negative; rated > 0 {
		rate := float64(b.positive) / float64(rated) * 100
		result.SatisfactionRate = &rate
		result.SatisfactionDisplay = fmt.Sprintf("%.0f%%", rate)
	}
	return result
}

func cell(count, total int) apitype.SatisfactionCell {
	var pct float64
	if total > 0 {
		pct = float64(count) / float64(total) * 100
	}
	return apitype.SatisfactionCell{
		Count:      count,
		Percentage: pct,
		Display:    fmt.Sprintf("%.1f%%", pct),
	}
}

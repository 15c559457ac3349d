// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package moderation

import (
	"context"

	"github.com/nearline-social/nearline/internal/models"
)

// ContentPipeline runs the automated media-decision cascade: skin-tone
// detector (rejects only) → neural classifier (per-class thresholds) →
// configured default action.
type ContentPipeline struct {
	Config     ContentModerationConfig
	Nude       NudeDetector
	Classifier NsfwClassifier
}

// Decide evaluates one image and returns the verdict plus, for
// rejections, the category to record alongside it.
func (p ContentPipeline) Decide(ctx context.Context, image []byte) (Verdict, models.RejectionCategory, error) {
	if p.Config.NudeDetection != nil && p.Nude != nil {
		nude, err := p.Nude.DetectNude(ctx, image)
		if err != nil {
			return VerdictReject, models.RejectionCategoryOther, err
		}
		if nude {
			if p.Config.NudeDetection.MoveRejectedToHuman {
				return VerdictMoveToHuman, models.RejectionCategoryNone, nil
			}
			return VerdictReject, models.RejectionCategoryNudity, nil
		}
	}

	if p.Config.NsfwDetection != nil && p.Classifier != nil {
		scores, err := p.Classifier.Classify(ctx, image)
		if err != nil {
			return VerdictReject, models.RejectionCategoryOther, err
		}
		nd := p.Config.NsfwDetection
		if nd.Reject != nil && nd.Reject.Exceeds(scores) {
			return VerdictReject, models.RejectionCategoryNudity, nil
		}
		if nd.MoveToHuman != nil && nd.MoveToHuman.Exceeds(scores) {
			return VerdictMoveToHuman, models.RejectionCategoryNone, nil
		}
		if nd.Accept != nil && nd.Accept.Exceeds(scores) {
			return VerdictAccept, models.RejectionCategoryNone, nil
		}
	}

	switch p.Config.DefaultAction {
	case VerdictReject:
		return VerdictReject, models.RejectionCategoryOther, nil
	case VerdictMoveToHuman:
		return VerdictMoveToHuman, models.RejectionCategoryNone, nil
	default:
		return VerdictAccept, models.RejectionCategoryNone, nil
	}
}

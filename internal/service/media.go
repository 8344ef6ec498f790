package service

import (
	"context"

	"merchant-bot/internal/models"
)

type MediaUploadResult struct {
	Count    int
	Replaced bool
}

// AddMedia stores an uploaded file for the merchant. Once the gallery holds
// RequiredMedia items, the oldest item (lowest sort order) is overwritten in
// place, so uploads never fail for being one too many.
func (s *Service) AddMedia(ctx context.Context, merchantID uint, fileID, mediaType string) (*MediaUploadResult, error) {
	items, err := s.repo.ListMedia(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	maxOrder := 0
	for _, item := range items {
		if item.SortOrder > maxOrder {
			maxOrder = item.SortOrder
		}
	}

	if len(items) < RequiredMedia {
		item := &models.MediaItem{
			MerchantID:     merchantID,
			TelegramFileID: fileID,
			MediaType:      mediaType,
			SortOrder:      maxOrder + 1,
			CreatedAt:      s.now(),
		}
		if err := s.repo.CreateMedia(ctx, item); err != nil {
			return nil, err
		}
		return &MediaUploadResult{Count: len(items) + 1}, nil
	}

	oldest := items[0]
	oldest.TelegramFileID = fileID
	oldest.MediaType = mediaType
	oldest.SortOrder = maxOrder + 1
	oldest.CreatedAt = s.now()
	if err := s.repo.UpdateMedia(ctx, &oldest); err != nil {
		return nil, err
	}
	return &MediaUploadResult{Count: len(items), Replaced: true}, nil
}

func (s *Service) ListMedia(ctx context.Context, merchantID uint) ([]models.MediaItem, error) {
	return s.repo.ListMedia(ctx, merchantID)
}

func (s *Service) ClearMedia(ctx context.Context, merchantID uint) error {
	return s.repo.DeleteMediaByMerchant(ctx, merchantID)
}

package mapper

import (
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

func AdminToResponse(item *entity.Admin) *types.AdminResponse {
	if item == nil {
		return nil
	}
	return &types.AdminResponse{
		ID:        item.ID,
		Email:     item.Email,
		IsActive:  item.IsActive,
		Role:      item.Role,
		CreatedAt: formatTime(item.CreatedAt),
	}
}

func AdminsToResponse(items []*entity.Admin) []*types.AdminResponse {
	result := make([]*types.AdminResponse, 0, len(items))
	for _, item := range items {
		result = append(result, AdminToResponse(item))
	}
	return result
}

func EmailSettingsToResponse(items []*entity.EmailSetting) []*types.EmailSettingResponse {
	result := make([]*types.EmailSettingResponse, 0, len(items))
	for _, item := range items {
		result = append(result, &types.EmailSettingResponse{
			Key:       item.Key,
			Value:     item.Value,
			UpdatedBy: derefString(item.UpdatedBy),
			UpdatedAt: formatTime(item.UpdatedAt),
		})
	}
	return result
}

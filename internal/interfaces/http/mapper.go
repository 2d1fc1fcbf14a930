package http

import (
	"github.com/jhoicas/Activos-api/internal/application/audit"
	"github.com/jhoicas/Activos-api/internal/application/dto"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// Mapeos entidad → DTO de respuesta. Los DTOs de entrada se parsean
// directo en los handlers.

func toTaskResponse(t *entity.InventoryTask) dto.TaskResponse {
	return dto.TaskResponse{
		ID:           t.ID,
		SessionID:    t.SessionID,
		AssigneeKind: t.Assignee.Kind,
		AssigneeID:   t.Assignee.ID,
		LocationID:   t.LocationID,
		Status:       t.Status,
		Notes:        t.Notes,
		StartedAt:    t.StartedAt,
		CompletedAt:  t.CompletedAt,
	}
}

func toTaskSummaryResponse(s repository.TaskSummary) dto.TaskSummaryResponse {
	return dto.TaskSummaryResponse{
		TaskResponse: toTaskResponse(s.Task),
		Expected:     s.Expected,
		Scanned:      s.Scanned,
	}
}

func toItemResponse(i *entity.InventoryItem) dto.ItemResponse {
	return dto.ItemResponse{
		ID:                   i.ID,
		SessionID:            i.SessionID,
		TaskID:               i.TaskID,
		AssetID:              i.AssetID,
		Status:               i.Status,
		ScannedAt:            i.ScannedAt,
		ScannedBy:            i.ScannedBy,
		IdentificationMethod: i.IdentificationMethod,
		AiConfidence:         i.AiConfidence,
		ConditionNotes:       i.ConditionNotes,
		UpdatedAt:            i.UpdatedAt,
	}
}

func toItemResponses(items []*entity.InventoryItem) []dto.ItemResponse {
	out := make([]dto.ItemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, toItemResponse(i))
	}
	return out
}

func toAssetResponse(a *entity.Asset) dto.AssetResponse {
	var tags map[string]string
	if len(a.Tags) > 0 {
		tags = make(map[string]string, len(a.Tags))
		for _, t := range a.Tags {
			tags[t.Key] = t.Value
		}
	}
	return dto.AssetResponse{
		ID:         a.ID,
		Code:       a.Code,
		Barcode:    a.Barcode,
		Name:       a.Name,
		CategoryID: a.CategoryID,
		LocationID: a.LocationID,
		Status:     a.Status,
		Tags:       tags,
	}
}

func toSessionResponse(s *entity.InventorySession) dto.SessionResponse {
	return dto.SessionResponse{
		ID:              s.ID,
		Name:            s.Name,
		Status:          s.Status,
		ScopeType:       s.ScopeType,
		ScopeIDs:        s.ScopeIDs,
		TotalExpected:   s.TotalExpected,
		TotalScanned:    s.TotalScanned,
		TotalMatched:    s.TotalMatched,
		TotalMissing:    s.TotalMissing,
		TotalUnexpected: s.TotalUnexpected,
		StartedAt:       s.StartedAt,
		CompletedAt:     s.CompletedAt,
	}
}

func toTaskBundleResponse(b *audit.TaskBundle) dto.TaskBundleResponse {
	assets := make([]dto.AssetResponse, 0, len(b.Assets))
	for _, a := range b.Assets {
		assets = append(assets, toAssetResponse(a))
	}
	index := make([]dto.BarcodeIndexEntry, 0, len(b.AllAssetBarcodes))
	for _, ref := range b.AllAssetBarcodes {
		index = append(index, dto.BarcodeIndexEntry{
			AssetID: ref.AssetID,
			Code:    ref.Code,
			Barcode: ref.Barcode,
		})
	}
	return dto.TaskBundleResponse{
		Task:             toTaskResponse(b.Task),
		Session:          toSessionResponse(b.Session),
		Items:            toItemResponses(b.Items),
		Assets:           assets,
		AllAssetBarcodes: index,
	}
}

func toSyncConflicts(conflicts []audit.SyncConflict) []dto.SyncConflict {
	out := make([]dto.SyncConflict, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, dto.SyncConflict{
			ItemID:          c.ItemID,
			AssetID:         c.AssetID,
			Reason:          c.Reason,
			ServerStatus:    c.ServerStatus,
			ServerScannedAt: c.ServerScannedAt,
			ServerScannedBy: c.ServerScannedBy,
		})
	}
	return out
}

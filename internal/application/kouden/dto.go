package kouden

import (
	"time"

	"github.com/google/uuid"

	"github.com/kouden/backend/internal/domain/kouden"
	"github.com/kouden/backend/internal/domain/shared"
)

// ReturnItemDTO is one line of a return gift list
type ReturnItemDTO struct {
	Name           string     `json:"name" binding:"required,max=200"`
	UnitPrice      int64      `json:"unitPrice" binding:"min=0"`
	Quantity       int64      `json:"quantity" binding:"min=0"`
	Notes          string     `json:"notes,omitempty" binding:"max=1000"`
	SourceMasterID *uuid.UUID `json:"sourceMasterId,omitempty"`
}

// CreateReturnRecordRequest carries the optional initial fields of a new record
type CreateReturnRecordRequest struct {
	// KoudenID, when set, must be the ledger of the entry
	KoudenID uuid.UUID `json:"-"`

	ReturnStatus        string          `json:"returnStatus" binding:"omitempty,oneof=PENDING PARTIAL_RETURNED COMPLETED NOT_REQUIRED"`
	ReturnItems         []ReturnItemDTO `json:"returnItems" binding:"omitempty,dive"`
	FuneralGiftAmount   int64           `json:"funeralGiftAmount" binding:"min=0"`
	ReturnMethod        *string         `json:"returnMethod" binding:"omitempty,max=100"`
	ArrangementDate     *string         `json:"arrangementDate"`
	Remarks             *string         `json:"remarks" binding:"omitempty,max=2000"`
	ShippingPostalCode  *string         `json:"shippingPostalCode" binding:"omitempty,max=16"`
	ShippingAddress     *string         `json:"shippingAddress" binding:"omitempty,max=500"`
	ShippingPhoneNumber *string         `json:"shippingPhoneNumber" binding:"omitempty,max=32"`
}

// UpdateFieldRequest addresses one allow-listed field
type UpdateFieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value any    `json:"value"`
}

// UpdateItemsRequest replaces the whole item list
type UpdateItemsRequest struct {
	ReturnItems []ReturnItemDTO `json:"returnItems" binding:"dive"`
}

// AmountRangeDTO bounds the joined gift amount, both ends inclusive
type AmountRangeDTO struct {
	Min *int64 `json:"min"`
	Max *int64 `json:"max"`
}

// BulkFilterDTO is the wire form of kouden.BulkFilter. Values are kept as
// strings so malformed ones surface as INVALID_FILTER.
type BulkFilterDTO struct {
	AmountRange     *AmountRangeDTO `json:"amountRange"`
	RelationshipIDs []string        `json:"relationshipIds"`
	CurrentStatuses []string        `json:"currentStatuses"`
	AttendanceTypes []string        `json:"attendanceTypes"`
	HasOffering     *bool           `json:"hasOffering"`
}

// ItemsInstructionDTO is accepted for compatibility and not applied
type ItemsInstructionDTO struct {
	Mode  string          `json:"mode"`
	Items []ReturnItemDTO `json:"items"`
}

type BulkUpdatesDTO struct {
	Status          *string              `json:"status"`
	ReturnMethod    *string              `json:"returnMethod"`
	ArrangementDate *string              `json:"arrangementDate"`
	Remarks         *string              `json:"remarks"`
	ReturnItems     *ItemsInstructionDTO `json:"returnItems"`
}

// BulkUpdateRequest is the body of a bulk status/metadata update
type BulkUpdateRequest struct {
	Filters BulkFilterDTO  `json:"filters"`
	Updates BulkUpdatesDTO `json:"updates"`
}

// BulkUpdateResult reports how many records were written
type BulkUpdateResult struct {
	Updated int `json:"updated"`
}

// DeleteManyRequest lists record ids to remove
type DeleteManyRequest struct {
	RecordIDs []uuid.UUID `json:"recordIds"`
}

// DeleteResult reports how many records were removed
type DeleteResult struct {
	Deleted int `json:"deleted"`
}

// PageQuery carries cursor page parameters
type PageQuery struct {
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Cursor string `form:"cursor"`
	Search string `form:"search" binding:"max=100"`
	Status string `form:"status" binding:"omitempty,oneof=PENDING PARTIAL_RETURNED COMPLETED NOT_REQUIRED"`
}

// ReturnRecordResponse is the JSON form of a return record
type ReturnRecordResponse struct {
	ID                     uuid.UUID       `json:"id"`
	KoudenEntryID          uuid.UUID       `json:"koudenEntryId"`
	KoudenID               uuid.UUID       `json:"koudenId"`
	ReturnStatus           string          `json:"returnStatus"`
	ReturnItems            []ReturnItemDTO `json:"returnItems"`
	FuneralGiftAmount      int64           `json:"funeralGiftAmount"`
	ReturnItemsCost        int64           `json:"returnItemsCost"`
	AdditionalReturnAmount int64           `json:"additionalReturnAmount"`
	ReturnMethod           *string         `json:"returnMethod"`
	ArrangementDate        *string         `json:"arrangementDate"`
	Remarks                *string         `json:"remarks"`
	ShippingPostalCode     *string         `json:"shippingPostalCode"`
	ShippingAddress        *string         `json:"shippingAddress"`
	ShippingPhoneNumber    *string         `json:"shippingPhoneNumber"`
	CreatedBy              *uuid.UUID      `json:"createdBy,omitempty"`
	CreatedAt              *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt              *time.Time      `json:"updatedAt,omitempty"`
}

// SummaryResponse is one row of the return management view
type SummaryResponse struct {
	KoudenEntryID      uuid.UUID            `json:"koudenEntryId"`
	KoudenID           uuid.UUID            `json:"koudenId"`
	Name               string               `json:"name"`
	Organization       *string              `json:"organization"`
	Position           *string              `json:"position"`
	Amount             int64                `json:"amount"`
	AttendanceType     string               `json:"attendanceType"`
	RelationshipID     *uuid.UUID           `json:"relationshipId"`
	RelationshipName   *string              `json:"relationshipName"`
	HasOffering        bool                 `json:"hasOffering"`
	HasReturnRecord    bool                 `json:"hasReturnRecord"`
	ReturnRecord       ReturnRecordResponse `json:"returnRecord"`
	OfferingAllocation int64                `json:"offeringAllocation"`
	TotalReturnValue   int64                `json:"totalReturnValue"`
	ReturnRate         float64              `json:"returnRate"`
	RateBand           string               `json:"rateBand"`
	OutstandingAmount  int64                `json:"outstandingAmount"`
}

// StatisticsResponse aggregates a ledger's summaries
type StatisticsResponse struct {
	KoudenID          uuid.UUID      `json:"koudenId"`
	TotalEntries      int            `json:"totalEntries"`
	WithoutRecord     int            `json:"withoutRecord"`
	StatusCounts      map[string]int `json:"statusCounts"`
	BandCounts        map[string]int `json:"bandCounts"`
	TotalGiftAmount   int64          `json:"totalGiftAmount"`
	TotalReturnValue  int64          `json:"totalReturnValue"`
	OutstandingAmount int64          `json:"outstandingAmount"`
	ReturnRate        float64        `json:"returnRate"`
}

// PageResponse is one cursor page of return records
type PageResponse struct {
	Data       []ReturnRecordResponse `json:"data"`
	HasMore    bool                   `json:"hasMore"`
	NextCursor *string                `json:"nextCursor,omitempty"`
}

func toDomainItems(items []ReturnItemDTO) []kouden.ReturnItem {
	if items == nil {
		return nil
	}
	out := make([]kouden.ReturnItem, len(items))
	for i, it := range items {
		out[i] = kouden.ReturnItem{
			Name:           it.Name,
			UnitPrice:      it.UnitPrice,
			Quantity:       it.Quantity,
			Notes:          it.Notes,
			SourceMasterID: it.SourceMasterID,
		}
	}
	return out
}

func toItemDTOs(items []kouden.ReturnItem) []ReturnItemDTO {
	out := make([]ReturnItemDTO, len(items))
	for i, it := range items {
		out[i] = ReturnItemDTO{
			Name:           it.Name,
			UnitPrice:      it.UnitPrice,
			Quantity:       it.Quantity,
			Notes:          it.Notes,
			SourceMasterID: it.SourceMasterID,
		}
	}
	return out
}

// ToReturnRecordResponse converts a domain record. Placeholders carry no
// identity or timestamps.
func ToReturnRecordResponse(r *kouden.ReturnEntryRecord) ReturnRecordResponse {
	resp := ReturnRecordResponse{
		ID:                     r.ID,
		KoudenEntryID:          r.KoudenEntryID,
		KoudenID:               r.KoudenID,
		ReturnStatus:           string(r.ReturnStatus),
		ReturnItems:            toItemDTOs(r.ReturnItems),
		FuneralGiftAmount:      r.FuneralGiftAmount,
		ReturnItemsCost:        r.ReturnItemsCost,
		AdditionalReturnAmount: r.AdditionalReturnAmount(),
		ReturnMethod:           r.ReturnMethod,
		Remarks:                r.Remarks,
		ShippingPostalCode:     r.ShippingPostalCode,
		ShippingAddress:        r.ShippingAddress,
		ShippingPhoneNumber:    r.ShippingPhoneNumber,
	}
	if r.ArrangementDate != nil {
		d := r.ArrangementDate.Format(kouden.DateLayout)
		resp.ArrangementDate = &d
	}
	if !r.IsPlaceholder() {
		createdAt, updatedAt := r.CreatedAt, r.UpdatedAt
		resp.CreatedAt = &createdAt
		resp.UpdatedAt = &updatedAt
		if r.CreatedBy != uuid.Nil {
			createdBy := r.CreatedBy
			resp.CreatedBy = &createdBy
		}
	}
	return resp
}

func toReturnRecordResponses(records []kouden.ReturnEntryRecord) []ReturnRecordResponse {
	out := make([]ReturnRecordResponse, len(records))
	for i := range records {
		out[i] = ToReturnRecordResponse(&records[i])
	}
	return out
}

// ToSummaryResponse converts a summary row
func ToSummaryResponse(s kouden.ReturnManagementSummary) SummaryResponse {
	return SummaryResponse{
		KoudenEntryID:      s.Entry.ID,
		KoudenID:           s.Entry.KoudenID,
		Name:               s.Entry.Name,
		Organization:       s.Entry.Organization,
		Position:           s.Entry.Position,
		Amount:             s.Entry.Amount,
		AttendanceType:     string(s.Entry.AttendanceType),
		RelationshipID:     s.Entry.RelationshipID,
		RelationshipName:   s.RelationshipName,
		HasOffering:        s.Entry.HasOffering,
		HasReturnRecord:    s.HasReturnRecord,
		ReturnRecord:       ToReturnRecordResponse(s.Record),
		OfferingAllocation: s.OfferingAllocation,
		TotalReturnValue:   s.TotalReturnValue,
		ReturnRate:         s.ReturnRate,
		RateBand:           string(s.RateBand),
		OutstandingAmount:  s.OutstandingAmount,
	}
}

func toSummaryResponses(summaries []kouden.ReturnManagementSummary) []SummaryResponse {
	out := make([]SummaryResponse, len(summaries))
	for i, s := range summaries {
		out[i] = ToSummaryResponse(s)
	}
	return out
}

// ToStatisticsResponse converts ledger statistics
func ToStatisticsResponse(s kouden.ReturnStatistics) StatisticsResponse {
	statuses := make(map[string]int, len(s.StatusCounts))
	for k, v := range s.StatusCounts {
		statuses[string(k)] = v
	}
	bands := make(map[string]int, len(s.BandCounts))
	for k, v := range s.BandCounts {
		bands[string(k)] = v
	}
	return StatisticsResponse{
		KoudenID:          s.KoudenID,
		TotalEntries:      s.TotalEntries,
		WithoutRecord:     s.WithoutRecord,
		StatusCounts:      statuses,
		BandCounts:        bands,
		TotalGiftAmount:   s.TotalGiftAmount,
		TotalReturnValue:  s.TotalReturnValue,
		OutstandingAmount: s.OutstandingAmount,
		ReturnRate:        s.ReturnRate,
	}
}

func toPageResponse(page shared.CursorPage[kouden.ReturnEntryRecord]) PageResponse {
	resp := PageResponse{
		Data:    toReturnRecordResponses(page.Items),
		HasMore: page.HasMore,
	}
	if page.NextCursor != "" {
		next := page.NextCursor
		resp.NextCursor = &next
	}
	return resp
}

// initialFields converts the create payload, coercing dates and blank text
// exactly like single-field updates do.
func (r CreateReturnRecordRequest) initialFields() (kouden.InitialFields, error) {
	init := kouden.InitialFields{
		ReturnItems:       toDomainItems(r.ReturnItems),
		FuneralGiftAmount: r.FuneralGiftAmount,
	}
	if r.ReturnStatus != "" {
		status, err := kouden.ParseReturnStatus(r.ReturnStatus)
		if err != nil {
			return init, err
		}
		init.ReturnStatus = status
	}

	changes := []struct {
		field kouden.Field
		raw   *string
	}{
		{kouden.FieldArrangementDate, r.ArrangementDate},
		{kouden.FieldReturnMethod, r.ReturnMethod},
		{kouden.FieldRemarks, r.Remarks},
		{kouden.FieldShippingPostalCode, r.ShippingPostalCode},
		{kouden.FieldShippingAddress, r.ShippingAddress},
		{kouden.FieldShippingPhoneNumber, r.ShippingPhoneNumber},
	}
	for _, c := range changes {
		if c.raw == nil {
			continue
		}
		change, err := kouden.NewFieldChange(string(c.field), *c.raw)
		if err != nil {
			return init, err
		}
		switch c.field {
		case kouden.FieldArrangementDate:
			init.ArrangementDate = change.Value.(*time.Time)
		case kouden.FieldReturnMethod:
			init.ReturnMethod = change.Value.(*string)
		case kouden.FieldRemarks:
			init.Remarks = change.Value.(*string)
		case kouden.FieldShippingPostalCode:
			init.ShippingPostalCode = change.Value.(*string)
		case kouden.FieldShippingAddress:
			init.ShippingAddress = change.Value.(*string)
		case kouden.FieldShippingPhoneNumber:
			init.ShippingPhoneNumber = change.Value.(*string)
		}
	}
	return init, nil
}

func (f BulkFilterDTO) toDomain() (kouden.BulkFilter, error) {
	filter := kouden.BulkFilter{HasOffering: f.HasOffering}
	if f.AmountRange != nil {
		filter.AmountRange = &kouden.AmountRange{Min: f.AmountRange.Min, Max: f.AmountRange.Max}
	}
	for _, raw := range f.RelationshipIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, shared.NewDomainError(shared.CodeInvalidFilter, "relationshipIds contains a malformed id: "+raw)
		}
		filter.RelationshipIDs = append(filter.RelationshipIDs, id)
	}
	for _, s := range f.CurrentStatuses {
		filter.CurrentStatuses = append(filter.CurrentStatuses, kouden.ReturnStatus(s))
	}
	for _, t := range f.AttendanceTypes {
		filter.AttendanceTypes = append(filter.AttendanceTypes, kouden.AttendanceType(t))
	}
	return filter, filter.Validate()
}

func (u BulkUpdatesDTO) toDomain() (kouden.BulkUpdates, error) {
	updates := kouden.BulkUpdates{
		ReturnMethod: u.ReturnMethod,
		Remarks:      u.Remarks,
	}
	if u.Status != nil {
		status := kouden.ReturnStatus(*u.Status)
		updates.Status = &status
	}
	if u.ArrangementDate != nil {
		change, err := kouden.NewFieldChange(string(kouden.FieldArrangementDate), *u.ArrangementDate)
		if err != nil {
			return updates, err
		}
		// a blank date carries nothing to write in bulk
		updates.ArrangementDate = change.Value.(*time.Time)
	}
	if u.ReturnItems != nil {
		updates.ReturnItems = &kouden.ItemsInstruction{
			Mode:  kouden.ItemsInstructionMode(u.ReturnItems.Mode),
			Items: toDomainItems(u.ReturnItems.Items),
		}
	}
	return updates, updates.Validate()
}

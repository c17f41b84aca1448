package dataset

import (
	"encoding/json"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/vmsouza/congregation-scheduler-api/pkg/database"
	"github.com/vmsouza/congregation-scheduler-api/pkg/models"
)

// ErrEmptyDataset is returned when the store holds no meeting parts at all.
var ErrEmptyDataset = errors.New("dataset: no meeting parts stored")

// Provider loads the meeting dataset (publishers, parts, history) from the
// database and keeps the last successful load in memory. When a read fails
// the cached snapshot is served instead so schedule generation keeps working
// while the store is unreachable.
type Provider struct {
	db *gorm.DB

	mu       sync.RWMutex
	lastGood *models.MeetingDataset
}

func NewProvider(db *gorm.DB) *Provider {
	return &Provider{db: db}
}

// Load reads the full dataset. fellBack reports whether a stale snapshot was
// substituted for a failed read; the caller is responsible for surfacing
// that as an API_FALLBACK warning.
func (p *Provider) Load() (ds *models.MeetingDataset, fellBack bool, err error) {
	ds, err = p.loadFromDB()
	if err != nil {
		p.mu.RLock()
		cached := p.lastGood
		p.mu.RUnlock()
		if cached == nil {
			return nil, false, err
		}
		return cached, true, nil
	}

	p.mu.Lock()
	p.lastGood = ds
	p.mu.Unlock()
	return ds, false, nil
}

func (p *Provider) loadFromDB() (*models.MeetingDataset, error) {
	var partRows []database.MeetingPartRecord
	if err := p.db.Order("week, position").Find(&partRows).Error; err != nil {
		return nil, err
	}
	if len(partRows) == 0 {
		return nil, ErrEmptyDataset
	}

	var pubRows []database.PublisherRecord
	if err := p.db.Order("name").Find(&pubRows).Error; err != nil {
		return nil, err
	}

	var histRows []database.HistoryRecord
	if err := p.db.Order("date desc").Find(&histRows).Error; err != nil {
		return nil, err
	}

	ds := &models.MeetingDataset{
		MeetingDate: partRows[0].Week,
		Parts:       make([]models.MeetingPart, 0, len(partRows)),
		Publishers:  make([]models.Publisher, 0, len(pubRows)),
		History:     make([]models.AssignmentHistory, 0, len(histRows)),
	}
	for _, row := range partRows {
		ds.Parts = append(ds.Parts, partFromRecord(row))
	}
	for _, row := range pubRows {
		ds.Publishers = append(ds.Publishers, publisherFromRecord(row))
	}
	for _, row := range histRows {
		ds.History = append(ds.History, historyFromRecord(row))
	}
	return ds, nil
}

// ReplacePublishers swaps the stored publisher pool in one transaction.
func (p *Provider) ReplacePublishers(publishers []models.Publisher) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&database.PublisherRecord{}).Error; err != nil {
			return err
		}
		for _, pub := range publishers {
			if err := tx.Create(publisherToRecord(pub)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceParts swaps the stored agenda in one transaction, preserving input
// order via the position column.
func (p *Provider) ReplaceParts(parts []models.MeetingPart) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&database.MeetingPartRecord{}).Error; err != nil {
			return err
		}
		for i, part := range parts {
			if err := tx.Create(partToRecord(part, i)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AppendHistory inserts new history rows; existing ids are left untouched.
func (p *Provider) AppendHistory(entries []models.AssignmentHistory) error {
	for _, entry := range entries {
		row := historyToRecord(entry)
		if err := p.db.Where(database.HistoryRecord{HistoryID: row.HistoryID}).FirstOrCreate(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func publisherFromRecord(row database.PublisherRecord) models.Publisher {
	return models.Publisher{
		PublisherID:               row.PublisherID,
		Name:                      row.Name,
		Gender:                    models.Gender(row.Gender),
		Privileges:                decodeStrings(row.Privileges),
		AuthorityLevel:            models.AuthorityLevel(row.AuthorityLevel),
		IsApprovedForTreasures:    row.IsApprovedForTreasures,
		IsApprovedForEBCDirigente: row.IsApprovedForEBCDirigente,
		IsApprovedForEBCLeitor:    row.IsApprovedForEBCLeitor,
		ApprovalNeeded:            row.ApprovalNeeded,
		CanBeHelper:               row.CanBeHelper,
		UnavailableWeeks:          decodeStrings(row.UnavailableWeeks),
	}
}

func publisherToRecord(pub models.Publisher) *database.PublisherRecord {
	return &database.PublisherRecord{
		PublisherID:               pub.PublisherID,
		Name:                      pub.Name,
		Gender:                    string(pub.Gender),
		Privileges:                encodeStrings(pub.Privileges),
		AuthorityLevel:            string(pub.AuthorityLevel),
		IsApprovedForTreasures:    pub.IsApprovedForTreasures,
		IsApprovedForEBCDirigente: pub.IsApprovedForEBCDirigente,
		IsApprovedForEBCLeitor:    pub.IsApprovedForEBCLeitor,
		ApprovalNeeded:            pub.ApprovalNeeded,
		CanBeHelper:               pub.CanBeHelper,
		UnavailableWeeks:          encodeStrings(pub.UnavailableWeeks),
	}
}

func partFromRecord(row database.MeetingPartRecord) models.MeetingPart {
	part := models.MeetingPart{
		PartID:                  row.PartID,
		Week:                    row.Week,
		PartType:                row.PartType,
		Section:                 row.Section,
		SpecialTag:              models.SpecialTag(row.SpecialTag),
		TeachingCategory:        models.TeachingCategory(row.TeachingCategory),
		RequiredPrivileges:      decodeStrings(row.RequiredPrivileges),
		RequiredGender:          models.Gender(row.RequiredGender),
		RequiresHelper:          row.RequiresHelper,
		RequiresApprovalByElder: row.RequiresApprovalByElder,
		AllowsPendingApproval:   row.AllowsPendingApproval,
		Duration:                row.Duration,
		CooldownGroup:           row.CooldownGroup,
	}
	if row.HelperRequirements != "" {
		var reqs models.HelperRequirements
		if err := json.Unmarshal([]byte(row.HelperRequirements), &reqs); err == nil {
			part.HelperRequirements = &reqs
		}
	}
	return part
}

func partToRecord(part models.MeetingPart, position int) *database.MeetingPartRecord {
	row := &database.MeetingPartRecord{
		PartID:                  part.PartID,
		Week:                    part.Week,
		Position:                position,
		PartType:                part.PartType,
		Section:                 part.Section,
		SpecialTag:              string(part.SpecialTag),
		TeachingCategory:        string(part.TeachingCategory),
		RequiredPrivileges:      encodeStrings(part.RequiredPrivileges),
		RequiredGender:          string(part.RequiredGender),
		RequiresHelper:          part.RequiresHelper,
		RequiresApprovalByElder: part.RequiresApprovalByElder,
		AllowsPendingApproval:   part.AllowsPendingApproval,
		Duration:                part.Duration,
		CooldownGroup:           part.CooldownGroup,
	}
	if part.HelperRequirements != nil {
		if encoded, err := json.Marshal(part.HelperRequirements); err == nil {
			row.HelperRequirements = string(encoded)
		}
	}
	return row
}

func historyFromRecord(row database.HistoryRecord) models.AssignmentHistory {
	return models.AssignmentHistory{
		HistoryID:      row.HistoryID,
		PublisherID:    row.PublisherID,
		Date:           row.Date,
		AssignmentType: models.TeachingCategory(row.AssignmentType),
		PartType:       row.PartType,
		CooldownGroup:  row.CooldownGroup,
	}
}

func historyToRecord(entry models.AssignmentHistory) database.HistoryRecord {
	return database.HistoryRecord{
		HistoryID:      entry.HistoryID,
		PublisherID:    entry.PublisherID,
		Date:           entry.Date,
		AssignmentType: string(entry.AssignmentType),
		PartType:       entry.PartType,
		CooldownGroup:  entry.CooldownGroup,
	}
}

func encodeStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

func decodeStrings(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}

package repository

import (
	"errors"
	"fmt"
	"time"

	"fundify/internal/domain"
	"fundify/internal/models"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CampaignRepository is the system of record for campaigns and their donation
// ledger. Every path that touches donations or current_amount_cents goes
// through AppendDonation, and status changes go through TransitionStatus; both
// are atomic at the storage level.
type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// validateFields checks the metadata invariants shared by Create and Update.
func validateFields(c *models.Campaign) error {
	if c.Title == "" || len(c.Title) > domain.MaxTitleLen {
		return fmt.Errorf("%w: title is required and must be at most %d characters", domain.ErrValidation, domain.MaxTitleLen)
	}
	if c.Description == "" || len(c.Description) > domain.MaxDescriptionLen {
		return fmt.Errorf("%w: description is required and must be at most %d characters", domain.ErrValidation, domain.MaxDescriptionLen)
	}
	if !domain.ValidCategory(c.Category) {
		return fmt.Errorf("%w: unknown category %q", domain.ErrValidation, c.Category)
	}
	if c.CoverImageURL == "" {
		return fmt.Errorf("%w: cover image is required", domain.ErrValidation)
	}
	if !c.EndDate.After(c.StartDate) {
		return fmt.Errorf("%w: end date must be after start date", domain.ErrValidation)
	}
	return nil
}

// Create validates the funding invariants and stores a new active campaign.
func (r *CampaignRepository) Create(c *models.Campaign) error {
	if c.GoalAmountCents < domain.MinAmountCents {
		return fmt.Errorf("%w: goal must be at least 1", domain.ErrValidation)
	}
	if c.StartDate.IsZero() {
		c.StartDate = time.Now()
	}
	if err := validateFields(c); err != nil {
		return err
	}
	c.Status = domain.CampaignStatusActive
	c.CurrentAmountCents = 0
	return r.db.Create(c).Error
}

func (r *CampaignRepository) GetByID(id uint) (*models.Campaign, error) {
	var c models.Campaign
	err := r.db.First(&c, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetDetailed loads a campaign with its ledger and timeline, both in insertion order.
func (r *CampaignRepository) GetDetailed(id uint) (*models.Campaign, error) {
	var c models.Campaign
	err := r.db.
		Preload("Donations", func(db *gorm.DB) *gorm.DB { return db.Order("donations.id ASC") }).
		Preload("Updates", func(db *gorm.DB) *gorm.DB { return db.Order("campaign_updates.id ASC") }).
		First(&c, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, err
	}
	return &c, nil
}

type CampaignFilter struct {
	Category string
	Status   string
	Search   string
	Limit    int
	Offset   int
}

func (r *CampaignRepository) List(f CampaignFilter) ([]models.Campaign, error) {
	q := r.db.Model(&models.Campaign{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("title LIKE ? OR description LIKE ?", like, like)
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	var out []models.Campaign
	err := q.Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&out).Error
	return out, err
}

// AppendDonation appends a donation and increments the campaign aggregate as
// one transaction, deduplicating on (campaign_id, gateway, external_txn_id).
// Returns the stored donation and whether this call created it. A redelivered
// confirmation resolves to the already-recorded donation with created=false
// and changes nothing.
//
// The campaign row is locked for the duration, so the duplicate pre-check, the
// insert and the increment cannot interleave with a concurrent delivery of the
// same event; the unique index is the backstop if two deliveries race on
// different connections before either commits.
func (r *CampaignRepository) AppendDonation(d *models.Donation) (*models.Donation, bool, error) {
	if d.AmountCents < domain.MinAmountCents {
		return nil, false, fmt.Errorf("%w: minimum donation is 1", domain.ErrValidation)
	}
	if d.Gateway == "" || d.ExternalTxnID == "" {
		return nil, false, fmt.Errorf("%w: gateway and transaction id are required", domain.ErrValidation)
	}
	var out *models.Donation
	created := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var c models.Campaign
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, d.CampaignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCampaignNotFound
			}
			return err
		}
		var existing models.Donation
		err := tx.Where("campaign_id = ? AND gateway = ? AND external_txn_id = ?",
			d.CampaignID, d.Gateway, d.ExternalTxnID).First(&existing).Error
		if err == nil {
			out = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if c.Status != domain.CampaignStatusActive {
			// Payment already captured at the gateway; record it but flag it.
			d.NeedsReview = true
		}
		if d.DonatedAt.IsZero() {
			d.DonatedAt = time.Now()
		}
		if err := tx.Create(d).Error; err != nil {
			if isDuplicateKey(err) {
				if err := tx.Where("campaign_id = ? AND gateway = ? AND external_txn_id = ?",
					d.CampaignID, d.Gateway, d.ExternalTxnID).First(&existing).Error; err != nil {
					return err
				}
				out = &existing
				return nil
			}
			return err
		}
		if err := tx.Model(&models.Campaign{}).Where("id = ?", d.CampaignID).
			Update("current_amount_cents", gorm.Expr("current_amount_cents + ?", d.AmountCents)).Error; err != nil {
			return err
		}
		out = d
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, created, nil
}

// TransitionStatus moves a campaign from one status to another with a
// conditional update. Already being in the target status is a no-op success;
// any other stored status fails with domain.ErrConflict.
func (r *CampaignRepository) TransitionStatus(id uint, from, to string) error {
	res := r.db.Model(&models.Campaign{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	c, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if c.Status == to {
		return nil
	}
	return fmt.Errorf("%w: campaign %d is %s, expected %s", domain.ErrConflict, id, c.Status, from)
}

// ExpiredActiveIDs returns the campaigns the sweeper should complete.
func (r *CampaignRepository) ExpiredActiveIDs(now time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Campaign{}).
		Where("status = ? AND end_date <= ?", domain.CampaignStatusActive, now).
		Pluck("id", &ids).Error
	return ids, err
}

// Update persists metadata edits (title, description, images, end date) after
// re-running the same field checks as Create, so a PATCH cannot smuggle in an
// unknown category or an end date before the start.
// Funding fields and status are owned by AppendDonation and TransitionStatus.
func (r *CampaignRepository) Update(c *models.Campaign) error {
	if err := validateFields(c); err != nil {
		return err
	}
	return r.db.Model(c).Select("title", "description", "category", "cover_image_url", "images_json", "end_date").Updates(c).Error
}

// Delete refuses to remove a campaign that has recorded donations.
func (r *CampaignRepository) Delete(id uint) error {
	var count int64
	if err := r.db.Model(&models.Donation{}).Where("campaign_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrHasDonations
	}
	res := r.db.Delete(&models.Campaign{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrCampaignNotFound
	}
	return nil
}

// AddUpdate appends a creator timeline entry.
func (r *CampaignRepository) AddUpdate(u *models.CampaignUpdate) error {
	if u.Title == "" || u.Content == "" {
		return fmt.Errorf("%w: update title and content are required", domain.ErrValidation)
	}
	if u.PostedAt.IsZero() {
		u.PostedAt = time.Now()
	}
	return r.db.Create(u).Error
}

// DonorDonation is one row of a user's donation history.
type DonorDonation struct {
	CampaignID    uint      `json:"campaign_id"`
	CampaignTitle string    `json:"campaign_title"`
	AmountCents   int64     `json:"amount_cents"`
	Message       string    `json:"message"`
	Gateway       string    `json:"gateway"`
	DonatedAt     time.Time `json:"donated_at"`
}

func (r *CampaignRepository) DonationsByDonor(donorID uint) ([]DonorDonation, error) {
	var rows []DonorDonation
	err := r.db.Table("donations").
		Select("donations.campaign_id, campaigns.title AS campaign_title, donations.amount_cents, donations.message, donations.gateway, donations.donated_at").
		Joins("JOIN campaigns ON campaigns.id = donations.campaign_id").
		Where("donations.donor_id = ?", donorID).
		Order("donations.donated_at DESC").
		Scan(&rows).Error
	return rows, err
}

// FlaggedDonations lists donations recorded against non-active campaigns,
// awaiting manual review.
func (r *CampaignRepository) FlaggedDonations() ([]models.Donation, error) {
	var out []models.Donation
	err := r.db.Where("needs_review = ?", true).Order("id ASC").Find(&out).Error
	return out, err
}

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}

package services

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"questify/models"
	"questify/store"
	"questify/store/gormstore"
	"questify/utils"
)

// CatalogService manages skill tracks, missions, questions and learning
// content.
type CatalogService struct {
	DB *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db}
}

func dbErr(op string, err error) error {
	return storeErr(op, gormstore.TranslateError(err))
}

func deleteByID(db *gorm.DB, model interface{}, id, op string) error {
	res := db.Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return dbErr(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return storeErr(op, store.ErrNotFound)
	}
	return nil
}

// ===================== Tracks =====================

type TrackInput struct {
	Name        string  `json:"name" validate:"notblank,max=100"`
	Slug        string  `json:"slug" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Icon        *string `json:"icon" validate:"omitempty,max=200"`
	Active      *bool   `json:"active"`
}

func (in TrackInput) apply(t *models.SkillTrack) {
	t.Name = strings.TrimSpace(in.Name)
	t.Slug = strings.TrimSpace(in.Slug)
	if t.Slug == "" {
		t.Slug = utils.Slugify(t.Name)
	}
	t.Description = in.Description
	t.Icon = in.Icon
	if in.Active != nil {
		t.Active = *in.Active
	}
}

// ListTracks returns tracks by name. activeOnly hides retired tracks.
func (s *CatalogService) ListTracks(ctx context.Context, activeOnly bool) ([]models.SkillTrack, error) {
	q := s.DB.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var out []models.SkillTrack
	if err := q.Find(&out).Error; err != nil {
		return nil, dbErr("list tracks", err)
	}
	return out, nil
}

func (s *CatalogService) GetTrack(ctx context.Context, id string) (*models.SkillTrack, error) {
	var t models.SkillTrack
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, dbErr("get track", err)
	}
	return &t, nil
}

func (s *CatalogService) CreateTrack(ctx context.Context, in TrackInput) (*models.SkillTrack, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	t := &models.SkillTrack{ID: uuid.NewString(), Active: true}
	in.apply(t)
	if err := s.DB.WithContext(ctx).Create(t).Error; err != nil {
		return nil, dbErr("create track", err)
	}
	log.Printf("✅ [CATALOG] Created track %s (%s)", t.Name, t.Slug)
	return t, nil
}

func (s *CatalogService) UpdateTrack(ctx context.Context, id string, in TrackInput) (*models.SkillTrack, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	t, err := s.GetTrack(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(t)
	if err := s.DB.WithContext(ctx).Save(t).Error; err != nil {
		return nil, dbErr("update track", err)
	}
	return t, nil
}

// DeleteTrack removes the track with its missions, their questions and
// progress. Content linked to the track is kept and unlinked.
func (s *CatalogService) DeleteTrack(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		missionIDs := tx.Model(&models.Mission{}).Select("id").Where("track_id = ?", id)
		if err := tx.Where("mission_id IN (?)", missionIDs).Delete(&models.Question{}).Error; err != nil {
			return dbErr("delete track questions", err)
		}
		if err := tx.Where("mission_id IN (?)", missionIDs).Delete(&models.MissionProgress{}).Error; err != nil {
			return dbErr("delete track progress", err)
		}
		if err := tx.Where("track_id = ?", id).Delete(&models.Mission{}).Error; err != nil {
			return dbErr("delete track missions", err)
		}
		err := tx.Model(&models.LearningContent{}).Where("track_id = ?", id).Update("track_id", nil).Error
		if err != nil {
			return dbErr("unlink track content", err)
		}
		return deleteByID(tx, &models.SkillTrack{}, id, "delete track")
	})
}

// ===================== Missions =====================

type MissionInput struct {
	TrackID       string            `json:"track_id" validate:"required,uuid"`
	Name          string            `json:"name" validate:"notblank,max=150"`
	Description   *string           `json:"description" validate:"omitempty,max=2000"`
	Difficulty    models.Difficulty `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	XPReward      int64             `json:"xp_reward" validate:"min=0,max=1000000"`
	EstimatedTime *string           `json:"estimated_time" validate:"omitempty,max=50"`
	Published     bool              `json:"published"`
}

func (in MissionInput) apply(m *models.Mission) {
	m.TrackID = in.TrackID
	m.Name = strings.TrimSpace(in.Name)
	m.Description = in.Description
	m.Difficulty = in.Difficulty
	if m.Difficulty == "" {
		m.Difficulty = models.DifficultyBeginner
	}
	m.XPReward = in.XPReward
	m.EstimatedTime = in.EstimatedTime
	m.Published = in.Published
}

// ListMissions returns missions of a track (all tracks when trackID is
// empty), oldest first. publishedOnly hides drafts.
func (s *CatalogService) ListMissions(ctx context.Context, trackID string, publishedOnly bool) ([]models.Mission, error) {
	q := s.DB.WithContext(ctx).Preload("Track").Order("created_at ASC, id ASC")
	if trackID != "" {
		q = q.Where("track_id = ?", trackID)
	}
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	var out []models.Mission
	if err := q.Find(&out).Error; err != nil {
		return nil, dbErr("list missions", err)
	}
	return out, nil
}

func (s *CatalogService) GetMission(ctx context.Context, id string) (*models.Mission, error) {
	var m models.Mission
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, dbErr("get mission", err)
	}
	return &m, nil
}

func (s *CatalogService) CreateMission(ctx context.Context, in MissionInput) (*models.Mission, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	if _, err := s.GetTrack(ctx, in.TrackID); err != nil {
		return nil, err
	}
	m := &models.Mission{ID: uuid.NewString()}
	in.apply(m)
	if err := s.DB.WithContext(ctx).Create(m).Error; err != nil {
		return nil, dbErr("create mission", err)
	}
	log.Printf("✅ [CATALOG] Created mission %s (+%d XP)", m.Name, m.XPReward)
	return m, nil
}

func (s *CatalogService) UpdateMission(ctx context.Context, id string, in MissionInput) (*models.Mission, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	m, err := s.GetMission(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.TrackID != in.TrackID {
		if _, err := s.GetTrack(ctx, in.TrackID); err != nil {
			return nil, err
		}
	}
	in.apply(m)
	if err := s.DB.WithContext(ctx).Omit("Track").Save(m).Error; err != nil {
		return nil, dbErr("update mission", err)
	}
	return m, nil
}

// DeleteMission removes the mission with its questions and progress rows.
func (s *CatalogService) DeleteMission(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("mission_id = ?", id).Delete(&models.Question{}).Error; err != nil {
			return dbErr("delete mission questions", err)
		}
		if err := tx.Where("mission_id = ?", id).Delete(&models.MissionProgress{}).Error; err != nil {
			return dbErr("delete mission progress", err)
		}
		return deleteByID(tx, &models.Mission{}, id, "delete mission")
	})
}

// ===================== Questions =====================

type QuestionInput struct {
	MissionID     string                  `json:"mission_id" validate:"required,uuid"`
	Question      string                  `json:"question" validate:"notblank,max=1000"`
	Options       []models.QuestionOption `json:"options" validate:"min=2,max=10,dive"`
	CorrectAnswer string                  `json:"correct_answer" validate:"notblank"`
	Explanation   *string                 `json:"explanation" validate:"omitempty,max=2000"`
}

// check verifies what tags cannot: option ids are unique and the correct
// answer names one of them.
func (in QuestionInput) check() error {
	seen := make(map[string]struct{}, len(in.Options))
	var fields []utils.FieldError
	for _, o := range in.Options {
		if strings.TrimSpace(o.ID) == "" || strings.TrimSpace(o.Text) == "" {
			fields = append(fields, utils.FieldError{Field: "options", Error: "options need an id and a text"})
			break
		}
		if _, dup := seen[o.ID]; dup {
			fields = append(fields, utils.FieldError{Field: "options", Error: "option ids must be unique"})
			break
		}
		seen[o.ID] = struct{}{}
	}
	if _, ok := seen[in.CorrectAnswer]; !ok {
		fields = append(fields, utils.FieldError{Field: "correct_answer", Error: "correct_answer must be one of the option ids"})
	}
	if len(fields) > 0 {
		return invalidFields(fields)
	}
	return nil
}

func (in QuestionInput) apply(q *models.Question) {
	q.MissionID = in.MissionID
	q.Question = strings.TrimSpace(in.Question)
	q.Options = models.QuestionOptions(in.Options)
	q.CorrectAnswer = in.CorrectAnswer
	q.Explanation = in.Explanation
}

func (s *CatalogService) ListQuestions(ctx context.Context, missionID string) ([]models.Question, error) {
	var out []models.Question
	err := s.DB.WithContext(ctx).
		Where("mission_id = ?", missionID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, dbErr("list questions", err)
	}
	return out, nil
}

func (s *CatalogService) CreateQuestion(ctx context.Context, in QuestionInput) (*models.Question, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	if err := in.check(); err != nil {
		return nil, err
	}
	if _, err := s.GetMission(ctx, in.MissionID); err != nil {
		return nil, err
	}
	q := &models.Question{ID: uuid.NewString()}
	in.apply(q)
	if err := s.DB.WithContext(ctx).Create(q).Error; err != nil {
		return nil, dbErr("create question", err)
	}
	return q, nil
}

func (s *CatalogService) UpdateQuestion(ctx context.Context, id string, in QuestionInput) (*models.Question, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	if err := in.check(); err != nil {
		return nil, err
	}
	var q models.Question
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&q).Error; err != nil {
		return nil, dbErr("get question", err)
	}
	in.apply(&q)
	if err := s.DB.WithContext(ctx).Save(&q).Error; err != nil {
		return nil, dbErr("update question", err)
	}
	return &q, nil
}

func (s *CatalogService) DeleteQuestion(ctx context.Context, id string) error {
	return deleteByID(s.DB.WithContext(ctx), &models.Question{}, id, "delete question")
}

// ===================== Learning content =====================

type ContentInput struct {
	Title       string  `json:"title" validate:"notblank,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	ContentType string  `json:"content_type" validate:"required,oneof=article video document link"`
	URL         *string `json:"url" validate:"omitempty,url"`
	TrackID     *string `json:"track_id" validate:"omitempty,uuid"`
}

func (in ContentInput) apply(c *models.LearningContent) {
	c.Title = strings.TrimSpace(in.Title)
	c.Description = in.Description
	c.ContentType = in.ContentType
	c.URL = in.URL
	c.TrackID = in.TrackID
}

func (s *CatalogService) ListContent(ctx context.Context, trackID string) ([]models.LearningContent, error) {
	q := s.DB.WithContext(ctx).Order("created_at DESC, id ASC")
	if trackID != "" {
		q = q.Where("track_id = ?", trackID)
	}
	var out []models.LearningContent
	if err := q.Find(&out).Error; err != nil {
		return nil, dbErr("list content", err)
	}
	return out, nil
}

// CreateContent stores content authored by createdBy (may be empty).
func (s *CatalogService) CreateContent(ctx context.Context, createdBy string, in ContentInput) (*models.LearningContent, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	c := &models.LearningContent{ID: uuid.NewString()}
	in.apply(c)
	if createdBy != "" {
		c.CreatedBy = &createdBy
	}
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		return nil, dbErr("create content", err)
	}
	return c, nil
}

func (s *CatalogService) UpdateContent(ctx context.Context, id string, in ContentInput) (*models.LearningContent, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	var c models.LearningContent
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, dbErr("get content", err)
	}
	in.apply(&c)
	if err := s.DB.WithContext(ctx).Omit("Track").Save(&c).Error; err != nil {
		return nil, dbErr("update content", err)
	}
	return &c, nil
}

func (s *CatalogService) DeleteContent(ctx context.Context, id string) error {
	return deleteByID(s.DB.WithContext(ctx), &models.LearningContent{}, id, "delete content")
}

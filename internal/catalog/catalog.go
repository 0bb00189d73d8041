package catalog

import (
	"github.com/toonvest/backend/internal/models"
)

// Catalog is the read-only list of investable titles. Funding progress for
// each title lives in the document store as an overlay; the catalog only
// carries the static attributes and base values.
type Catalog struct {
	titles []models.Title
	byID   map[string]*models.Title
}

func New() *Catalog {
	return newWith(defaultTitles)
}

func newWith(titles []models.Title) *Catalog {
	c := &Catalog{
		titles: titles,
		byID:   make(map[string]*models.Title, len(titles)),
	}
	for i := range c.titles {
		c.byID[c.titles[i].ID] = &c.titles[i]
	}
	return c
}

// List returns every catalog title.
func (c *Catalog) List() []models.Title {
	return c.titles
}

// Get looks up one title by id.
func (c *Catalog) Get(titleID string) (*models.Title, bool) {
	t, ok := c.byID[titleID]
	return t, ok
}

// BaseProgress builds the progress record implied by a title that has no
// stored overlay yet.
func BaseProgress(t *models.Title) *models.ProgressRecord {
	return &models.ProgressRecord{
		CurrentRaised:  t.BaseRaised,
		TotalInvestors: t.BaseInvestors,
	}
}

var defaultTitles = []models.Title{
	{
		ID:          "wt-001",
		Title:       "달빛 조각사: 리마스터",
		Category:    "판타지",
		Thumbnail:   "/static/covers/wt-001.png",
		ExpectedROI: 12.5,
		GoalAmount:  500_000_000,
		BaseRaised:  182_500_000, BaseInvestors: 1204,
		Description: "게임 판타지의 고전, 애니메이션 제작 확정을 향한 펀딩.",
	},
	{
		ID:          "wt-002",
		Title:       "옥탑방 검술원",
		Category:    "액션",
		Thumbnail:   "/static/covers/wt-002.png",
		ExpectedROI: 9.0,
		GoalAmount:  300_000_000,
		BaseRaised:  45_000_000, BaseInvestors: 389,
		Description: "현대 서울에서 벌어지는 검술 성장물, 드라마화 추진 중.",
	},
	{
		ID:          "wt-003",
		Title:       "편의점 샛별이별",
		Category:    "로맨스",
		Thumbnail:   "/static/covers/wt-003.png",
		ExpectedROI: 15.0,
		GoalAmount:  200_000_000,
		BaseRaised:  121_000_000, BaseInvestors: 2011,
		Description: "심야 편의점 로맨스, 2차 시즌 드라마 판권 협상 단계.",
	},
	{
		ID:          "wt-004",
		Title:       "회귀자의 주식 일기",
		Category:    "드라마",
		Thumbnail:   "/static/covers/wt-004.png",
		ExpectedROI: 11.0,
		GoalAmount:  400_000_000,
		BaseRaised:  388_000_000, BaseInvestors: 3150,
		Description: "회귀 재테크물, 목표 달성 임박.",
	},
	{
		ID:          "wt-005",
		Title:       "무림 고양이 연대기",
		Category:    "무협",
		Thumbnail:   "/static/covers/wt-005.png",
		ExpectedROI: 8.5,
		GoalAmount:  250_000_000,
		BaseRaised:  12_000_000, BaseInvestors: 98,
		Description: "무협과 동물물의 결합, 애니메이션 숏폼 기획.",
	},
	{
		ID:          "wt-006",
		Title:       "야간병동 괴담일지",
		Category:    "스릴러",
		Thumbnail:   "/static/covers/wt-006.png",
		ExpectedROI: 13.0,
		GoalAmount:  350_000_000,
		BaseRaised:  67_500_000, BaseInvestors: 540,
		Description: "병원 괴담 옴니버스, OTT 오리지널 제안 접수.",
	},
}

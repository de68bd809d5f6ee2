package inspection

import (
	"testing"

	"github.com/agrocert/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSections_BindTo(t *testing.T) {
	fichaID := uuid.New()
	oldID := uuid.New()
	s := Sections{
		DocumentationReview: &DocumentationReview{FieldDiary: true},
		CropDetails: []CropDetail{
			{ID: oldID, PlotID: uuid.New(), CropTypeID: uuid.New(), Area: decimal.NewFromInt(1)},
			{PlotID: uuid.New(), CropTypeID: uuid.New(), Area: decimal.NewFromInt(2)},
		},
		InspectedPlots: []InspectedPlot{},
	}

	s.BindTo(fichaID)

	assert.Equal(t, fichaID, s.DocumentationReview.FichaID)
	assert.Nil(t, s.MitigationEvaluation)
	for i, c := range s.CropDetails {
		assert.Equal(t, fichaID, c.FichaID)
		assert.Equal(t, i, c.Position)
		assert.NotEqual(t, uuid.Nil, c.ID)
	}
	assert.NotEqual(t, oldID, s.CropDetails[0].ID)
	assert.NotNil(t, s.InspectedPlots)
	assert.Empty(t, s.InspectedPlots)
}

func TestSections_Validate(t *testing.T) {
	valid := Sections{CropDetails: []CropDetail{{PlotID: uuid.New(), CropTypeID: uuid.New(), Area: decimal.NewFromInt(1)}}}
	assert.NoError(t, valid.Validate())

	zeroArea := Sections{CropDetails: []CropDetail{{PlotID: uuid.New(), CropTypeID: uuid.New()}}}
	assertDomainCode(t, zeroArea.Validate(), shared.CodeInvalidInput)

	noPlot := Sections{InspectedPlots: []InspectedPlot{{}}}
	assertDomainCode(t, noPlot.Validate(), shared.CodeInvalidInput)

	negativeHeads := Sections{LivestockActivities: []LivestockActivity{{HeadCount: -1}}}
	assertDomainCode(t, negativeHeads.Validate(), shared.CodeInvalidInput)
}

func TestSections_IsEmpty(t *testing.T) {
	assert.True(t, (&Sections{}).IsEmpty())
	assert.False(t, (&Sections{SowingPlans: []SowingPlan{}}).IsEmpty())
}

package repositories

import (
	"context"
	"testing"
	"time"

	"expense-tracker/internal/database"
	"expense-tracker/internal/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

func TestExpenseRepository(t *testing.T) {
	suite.Run(t, new(ExpenseRepositorySuite))
}

type ExpenseRepositorySuite struct {
	suite.Suite
	db    *database.DB
	repo  ExpenseRepositoryInterface
	ctx   context.Context
	owner *models.User
	other *models.User
}

func (s *ExpenseRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewExpenseRepository(s.db.DB)
	s.ctx = context.Background()
	s.owner = database.CreateTestUser(s.T(), s.db, "owner@example.com")
	s.other = database.CreateTestUser(s.T(), s.db, "other@example.com")
}

func (s *ExpenseRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *ExpenseRepositorySuite) newExpense(owner uuid.UUID, category string, amount float64, date time.Time) *models.Expense {
	return &models.Expense{
		UserID:      owner,
		Amount:      decimal.NewFromFloat(amount),
		Category:    category,
		Description: gofakeit.Sentence(4),
		Date:        date,
	}
}

func (s *ExpenseRepositorySuite) create(expense *models.Expense) *models.Expense {
	s.Require().NoError(s.repo.Create(s.ctx, expense))
	return expense
}

func (s *ExpenseRepositorySuite) TestCreate_AssignsIDAndTimestamps() {
	expense := s.newExpense(s.owner.ID, models.CategoryFood, 12.5, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	expense.Tags = models.StringList{"lunch"}

	err := s.repo.Create(s.ctx, expense)

	s.NoError(err)
	s.NotEqual(uuid.Nil, expense.ID)
	s.False(expense.CreatedAt.IsZero())

	stored, err := s.repo.GetByID(s.ctx, expense.ID)
	s.Require().NoError(err)
	s.Equal(s.owner.ID, stored.UserID)
	s.True(decimal.NewFromFloat(12.5).Equal(stored.Amount))
	s.Equal(models.StringList{"lunch"}, stored.Tags)
	s.True(expense.Date.Equal(stored.Date))
}

func (s *ExpenseRepositorySuite) TestCreate_RejectsInvalidExpense() {
	expense := s.newExpense(s.owner.ID, "groceries", 10, time.Now())

	err := s.repo.Create(s.ctx, expense)

	s.ErrorIs(err, models.ErrInvalidCategory)
}

func (s *ExpenseRepositorySuite) TestCreate_Nil() {
	s.Error(s.repo.Create(s.ctx, nil))
}

func (s *ExpenseRepositorySuite) TestGetByID_NotFound() {
	_, err := s.repo.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, ErrExpenseNotFound)
}

func (s *ExpenseRepositorySuite) TestListForOwner_FiltersAndPaginates() {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.create(s.newExpense(s.owner.ID, models.CategoryFood, float64(10+i), base.AddDate(0, 0, i)))
	}
	s.create(s.newExpense(s.owner.ID, models.CategoryTravel, 300, base.AddDate(0, 0, 10)))
	s.create(s.newExpense(s.other.ID, models.CategoryFood, 99, base))

	all, total, err := s.repo.ListForOwner(s.ctx, s.owner.ID, models.ExpenseFilters{Category: models.CategoryAll})
	s.Require().NoError(err)
	s.Equal(int64(6), total)
	s.Len(all, 6)
	s.Equal(models.CategoryTravel, all[0].Category, "newest first")

	food, total, err := s.repo.ListForOwner(s.ctx, s.owner.ID, models.ExpenseFilters{Category: models.CategoryFood, Limit: 2, Offset: 2})
	s.Require().NoError(err)
	s.Equal(int64(5), total)
	s.Len(food, 2)
	s.True(food[0].Date.Equal(base.AddDate(0, 0, 2)))

	start := base.AddDate(0, 0, 1)
	end := base.AddDate(0, 0, 3)
	ranged, total, err := s.repo.ListForOwner(s.ctx, s.owner.ID, models.ExpenseFilters{StartDate: &start, EndDate: &end})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Len(ranged, 3)
}

func (s *ExpenseRepositorySuite) TestListForOwner_ClampsLimit() {
	for i := 0; i < 3; i++ {
		s.create(s.newExpense(s.owner.ID, models.CategoryOther, 1, time.Now().UTC()))
	}

	expenses, _, err := s.repo.ListForOwner(s.ctx, s.owner.ID, models.ExpenseFilters{Limit: MaxListLimit + 50})
	s.Require().NoError(err)
	s.Len(expenses, 3)
}

func (s *ExpenseRepositorySuite) TestListAllForOwner_ScopedToOwner() {
	s.create(s.newExpense(s.owner.ID, models.CategoryFood, 1, time.Now().UTC()))
	s.create(s.newExpense(s.owner.ID, models.CategoryShopping, 2, time.Now().UTC()))
	s.create(s.newExpense(s.other.ID, models.CategoryFood, 3, time.Now().UTC()))

	expenses, err := s.repo.ListAllForOwner(s.ctx, s.owner.ID)
	s.Require().NoError(err)
	s.Len(expenses, 2)
	for _, e := range expenses {
		s.Equal(s.owner.ID, e.UserID)
	}

	none, err := s.repo.ListAllForOwner(s.ctx, uuid.New())
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *ExpenseRepositorySuite) TestUpdate_ChangesFieldsButNeverOwner() {
	expense := s.create(s.newExpense(s.owner.ID, models.CategoryFood, 10, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))

	expense.Amount = decimal.NewFromFloat(42.75)
	expense.Category = models.CategoryHealthcare
	expense.UserID = s.other.ID

	s.Require().NoError(s.repo.Update(s.ctx, s.owner.ID, expense))

	stored, err := s.repo.GetByID(s.ctx, expense.ID)
	s.Require().NoError(err)
	s.True(decimal.NewFromFloat(42.75).Equal(stored.Amount))
	s.Equal(models.CategoryHealthcare, stored.Category)
	s.Equal(s.owner.ID, stored.UserID)
}

func (s *ExpenseRepositorySuite) TestUpdate_WrongOwnerAffectsNothing() {
	expense := s.create(s.newExpense(s.owner.ID, models.CategoryFood, 10, time.Now().UTC()))
	expense.Amount = decimal.NewFromInt(999)

	err := s.repo.Update(s.ctx, s.other.ID, expense)
	s.ErrorIs(err, ErrExpenseNotFound)

	stored, err := s.repo.GetByID(s.ctx, expense.ID)
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(10).Equal(stored.Amount))
}

func (s *ExpenseRepositorySuite) TestDelete() {
	expense := s.create(s.newExpense(s.owner.ID, models.CategoryFood, 10, time.Now().UTC()))

	s.ErrorIs(s.repo.Delete(s.ctx, s.other.ID, expense.ID), ErrExpenseNotFound)
	s.NoError(s.repo.Delete(s.ctx, s.owner.ID, expense.ID))
	s.ErrorIs(s.repo.Delete(s.ctx, s.owner.ID, expense.ID), ErrExpenseNotFound)

	_, err := s.repo.GetByID(s.ctx, expense.ID)
	s.ErrorIs(err, ErrExpenseNotFound)
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"compost-backend/internal/compost"
	"compost-backend/internal/models"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, *Store) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)

	db := sqlx.NewDb(raw, "postgres")
	store := NewStore(db, zap.NewNop())

	return db, mock, store
}

func TestGetUnit_NotFound(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM compost_units WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	unit, err := store.GetUnit(context.Background(), "missing")

	assert.Nil(t, unit)
	assert.ErrorIs(t, err, compost.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUnitStatus_NoRows(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE compost_units SET status`).
		WithArgs("full", sqlmock.AnyArg(), "unit-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateUnitStatus(context.Background(), "unit-1", models.UnitStatusFull)

	assert.ErrorIs(t, err, compost.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUnitCascade_Success(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	for _, table := range []string{"sensor_readings", "monitoring_logs", "compost_harvests", "compost_entries"} {
		mock.ExpectExec(`DELETE FROM ` + table + ` WHERE compost_unit_id = \$1`).
			WithArgs("unit-1").
			WillReturnResult(sqlmock.NewResult(0, 3))
	}
	mock.ExpectExec(`DELETE FROM compost_units WHERE id = \$1`).
		WithArgs("unit-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.DeleteUnitCascade(context.Background(), "unit-1")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUnitCascade_MissingUnitRollsBack(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	for _, table := range []string{"sensor_readings", "monitoring_logs", "compost_harvests", "compost_entries"} {
		mock.ExpectExec(`DELETE FROM ` + table).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(`DELETE FROM compost_units`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.DeleteUnitCascade(context.Background(), "unit-1")

	assert.ErrorIs(t, err, compost.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadingExistsNear_UsesWindowBounds(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	at := time.Unix(1_700_000_000, 0)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("unit-1", at.Unix()-1800, at.Unix()+1800).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.ReadingExistsNear(context.Background(), "unit-1", at, 30*time.Minute)

	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadingAggregate_ScansNullableAverages(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"avg_temp", "avg_ph", "avg_humidity", "avg_oxygen", "reading_count", "latest_at"}).
		AddRow(42.5, 6.8, nil, nil, int64(4), int64(1_700_000_000))
	mock.ExpectQuery(`AVG\(temperature\)`).
		WithArgs("unit-1").
		WillReturnRows(rows)

	agg, err := store.ReadingAggregate(context.Background(), "unit-1")

	require.NoError(t, err)
	assert.Equal(t, 4, agg.Count)
	require.NotNil(t, agg.AvgTemp)
	assert.InDelta(t, 42.5, *agg.AvgTemp, 1e-9)
	assert.Nil(t, agg.AvgHumidity)
	require.NotNil(t, agg.LatestAt)
	assert.Equal(t, int64(1_700_000_000), *agg.LatestAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReading_AssignsID(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	unitID := "unit-1"
	temp := 55.0
	r := &models.SensorReading{CompostUnitID: &unitID, Timestamp: 1_700_000_000, Temperature: &temp}

	mock.ExpectQuery(`INSERT INTO sensor_readings`).
		WithArgs(&unitID, int64(1_700_000_000), &temp, nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(17))

	err := store.InsertReading(context.Background(), r)

	require.NoError(t, err)
	assert.Equal(t, 17, r.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var lockedUnitColumns = []string{
	"id", "owner_id", "name", "description", "location", "latitude", "longitude",
	"capacity", "current_load", "unit_type", "status", "is_public",
	"temperature", "ph_level", "moisture_level", "created_at", "updated_at", "load_carry",
}

func lockedUnitRow(load int, carry float64, status string) *sqlmock.Rows {
	return sqlmock.NewRows(lockedUnitColumns).AddRow(
		"unit-1", "user-1", "Backyard", "", "Garden", nil, nil,
		100, load, "domestic", status, false,
		nil, nil, nil, int64(1_700_000_000), int64(1_700_000_000), carry,
	)
}

func TestRecordEntry_LocksUnitAndUpdatesLoad(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	e := &models.CompostEntry{CompostUnitID: "unit-1", MaterialID: 2, UserID: "user-1", Quantity: 5.5, DateAdded: 1_700_000_000}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM compost_units WHERE id = \$1 FOR UPDATE`).
		WithArgs("unit-1").
		WillReturnRows(lockedUnitRow(90, 0.75, models.UnitStatusActive))
	mock.ExpectQuery(`INSERT INTO compost_entries`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec(`UPDATE compost_units SET current_load = \$1, load_carry = \$2`).
		WithArgs(96, 0.25, "full", sqlmock.AnyArg(), "unit-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	unit, err := store.RecordEntry(context.Background(), e, func(u *models.CompostUnit) error {
		assert.Equal(t, 90, u.CurrentLoad)
		u.CurrentLoad = 96
		u.LoadCarry = 0.25
		u.Status = models.UnitStatusFull
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 9, e.ID)
	assert.Equal(t, 96, unit.CurrentLoad)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordEntry_RejectedChangeRollsBack(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	e := &models.CompostEntry{CompostUnitID: "unit-1", MaterialID: 2, UserID: "user-1", Quantity: 20}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM compost_units WHERE id = \$1 FOR UPDATE`).
		WithArgs("unit-1").
		WillReturnRows(lockedUnitRow(90, 0, models.UnitStatusActive))
	mock.ExpectRollback()

	_, err := store.RecordEntry(context.Background(), e, func(u *models.CompostUnit) error {
		return compost.ErrCapacityExceeded
	})

	assert.ErrorIs(t, err, compost.ErrCapacityExceeded)
	assert.Zero(t, e.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordHarvest_MissingUnitRollsBack(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	h := &models.CompostHarvest{CompostUnitID: "unit-1", UserID: "user-1", Quantity: 5, QualityGrade: "A"}

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("unit-1").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := store.RecordHarvest(context.Background(), h, func(u *models.CompostUnit) error {
		t.Fatal("change must not run without a unit")
		return nil
	})

	assert.ErrorIs(t, err, compost.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUnit_UniqueViolationIsAlreadyExists(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO compost_units`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_compost_units_owner_name"})

	err := store.CreateUnit(context.Background(), &models.CompostUnit{ID: "unit-1", OwnerID: "user-1", Name: "Backyard"})

	assert.ErrorIs(t, err, compost.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "idx_compost_units_owner_name")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUnit_OtherErrorsAreWrapped(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO compost_units`).WillReturnError(errors.New("connection reset"))

	err := store.CreateUnit(context.Background(), &models.CompostUnit{ID: "unit-1"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, compost.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "failed to create unit")
}

func TestUpsertProfile_InsertsOrUpdates(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	p := &models.UserProfile{UserID: "user-1", Bio: "Worm farmer", DateJoinedExtended: 1_700_000_000}

	mock.ExpectExec(`INSERT INTO user_profiles .* ON CONFLICT \(user_id\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpsertProfile(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserWithProfile_ProfileFailureRollsBack(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	u := &models.User{ID: "user-1", Email: "a@example.com", Username: "alice", Password: "hash"}
	p := &models.UserProfile{}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO user_profiles`).WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := store.CreateUserWithProfile(context.Background(), u, p)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create user profile")
	assert.Equal(t, "user-1", p.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedMaterials_SkipsWhenPresent(t *testing.T) {
	db, mock, _ := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM compost_materials`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(13))

	err := SeedMaterials(db, zap.NewNop())

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMaterials_RecommendedOnly(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "material_type", "carbon_nitrogen_ratio", "description", "is_recommended"}).
		AddRow(1, "Straw", "brown", 80.0, "", true)
	mock.ExpectQuery(`FROM compost_materials`).WillReturnRows(rows)

	materials, err := store.ListMaterials(context.Background(), true)

	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, "Straw", materials[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

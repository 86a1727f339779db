package employee_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-ems/internal/employee"
	employeeerrors "go-ems/internal/employee/errors"
	"go-ems/internal/events"
	"go-ems/internal/shared/apperror"
	"go-ems/internal/shared/contextutil"
	"go-ems/internal/upload"

	employeeMock "go-ems/internal/employee/mock"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type serviceDeps struct {
	service   employee.Service
	repo      *employeeMock.MockRepository
	files     *employeeMock.MockFileRemover
	publisher *employeeMock.MockEventPublisher
}

func setupServiceTest(t *testing.T) *serviceDeps {
	ctrl := gomock.NewController(t)

	repo := employeeMock.NewMockRepository(ctrl)
	files := employeeMock.NewMockFileRemover(ctrl)
	publisher := employeeMock.NewMockEventPublisher(ctrl)

	return &serviceDeps{
		service:   employee.NewService(repo, files, publisher),
		repo:      repo,
		files:     files,
		publisher: publisher,
	}
}

func strPtr(s string) *string { return &s }

func numPtr(s string) *json.Number {
	n := json.Number(s)
	return &n
}

func validCreateRequest() employee.EmployeeRequest {
	return employee.EmployeeRequest{
		FirstName:  strPtr("Ada"),
		LastName:   strPtr("Lovelace"),
		Email:      strPtr("ada@x.com"),
		Position:   strPtr("Engineer"),
		Department: strPtr("R&D"),
		Salary:     numPtr("120000"),
	}
}

func existingEmployee(picture *string) *employee.Employee {
	return &employee.Employee{
		ID:             uuid.New(),
		FirstName:      "Grace",
		LastName:       "Hopper",
		Email:          "grace@x.com",
		Position:       "Admiral",
		Department:     "Navy",
		Salary:         80000,
		DateOfJoining:  time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		ProfilePicture: picture,
		CreatedAt:      time.Now().Add(-time.Hour),
	}
}

func TestEmployeeService_GetAll(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		deps := setupServiceTest(t)
		newer, older := existingEmployee(strPtr("a.png")), existingEmployee(nil)
		deps.repo.EXPECT().FindAll(ctx).Return([]employee.Employee{*newer, *older}, nil)

		resp, err := deps.service.GetAll(ctx)

		require.NoError(t, err)
		require.Len(t, resp, 2)
		assert.Equal(t, newer.ID.String(), resp[0].ID)
		assert.Equal(t, "/uploads/a.png", resp[0].ProfilePictureURL)
		assert.Empty(t, resp[1].ProfilePictureURL)
	})

	t.Run("store failure surfaces as internal error", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindAll(ctx).Return(nil, errors.New("connection reset"))

		_, err := deps.service.GetAll(ctx)

		httpErr := apperror.ToHTTP(err)
		assert.Equal(t, 500, httpErr.Status)
		assert.Equal(t, "connection reset", httpErr.Details)
	})
}

func TestEmployeeService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed id is not found", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.GetByID(ctx, "not-a-uuid")

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})

	t.Run("missing record", func(t *testing.T) {
		deps := setupServiceTest(t)
		id := uuid.NewString()
		deps.repo.EXPECT().FindByID(ctx, id).Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.GetByID(ctx, id)

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})

	t.Run("success", func(t *testing.T) {
		deps := setupServiceTest(t)
		empl := existingEmployee(nil)
		deps.repo.EXPECT().FindByID(ctx, empl.ID.String()).Return(empl, nil)

		resp, err := deps.service.GetByID(ctx, empl.ID.String())

		require.NoError(t, err)
		assert.Equal(t, "Grace", resp.FirstName)
		assert.Equal(t, 80000.0, resp.Salary)
	})
}

func TestEmployeeService_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("requires department or position", func(t *testing.T) {
		deps := setupServiceTest(t)

		resp, err := deps.service.Search(ctx, employee.SearchFilter{Department: "  ", Position: ""})

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, employeeerrors.ErrMissingSearchCriteria)
		assert.Equal(t, 400, apperror.ToHTTP(err).Status)
	})

	t.Run("trims filters before querying", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().
			Search(ctx, employee.SearchFilter{Department: "eng"}).
			Return([]employee.Employee{*existingEmployee(nil)}, nil)

		resp, err := deps.service.Search(ctx, employee.SearchFilter{Department: " eng "})

		require.NoError(t, err)
		assert.Len(t, resp, 1)
	})

	t.Run("no matches is an empty list", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().Search(ctx, gomock.Any()).Return(nil, nil)

		resp, err := deps.service.Search(ctx, employee.SearchFilter{Position: "pilot"})

		require.NoError(t, err)
		assert.NotNil(t, resp)
		assert.Empty(t, resp)
	})
}

func TestEmployeeService_Create(t *testing.T) {
	file := &upload.StoredFile{Name: "1700000000000-abc.png", OriginalName: "me.png", ContentType: "image/png", Size: 10}

	t.Run("success with picture", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := contextutil.WithRequestID(context.Background(), "REQ-1")
		req := validCreateRequest()

		deps.repo.EXPECT().ExistsByEmail(ctx, "ada@x.com", "").Return(false, nil)
		deps.repo.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, e *employee.Employee) error {
				assert.NotEqual(t, uuid.Nil, e.ID)
				assert.Equal(t, "Ada", e.FirstName)
				assert.Equal(t, 120000.0, e.Salary)
				assert.False(t, e.DateOfJoining.IsZero())
				require.NotNil(t, e.ProfilePicture)
				assert.Equal(t, file.Name, *e.ProfilePicture)
				return nil
			})
		deps.publisher.EXPECT().
			Publish(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, ev events.EmployeeLifecycleEvent) error {
				assert.Equal(t, events.EmployeeCreated, ev.EventType)
				assert.Equal(t, "REQ-1", ev.RequestID)
				assert.Equal(t, "ada@x.com", ev.Email)
				return nil
			})

		resp, err := deps.service.Create(ctx, req, file)

		require.NoError(t, err)
		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, "/uploads/"+file.Name, resp.ProfilePictureURL)
	})

	t.Run("explicit date of joining", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()
		req := validCreateRequest()
		req.DateOfJoining = strPtr("2023-05-01")

		deps.repo.EXPECT().ExistsByEmail(ctx, gomock.Any(), "").Return(false, nil)
		deps.repo.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, e *employee.Employee) error {
				assert.Equal(t, time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC), e.DateOfJoining)
				assert.Nil(t, e.ProfilePicture)
				return nil
			})
		deps.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		_, err := deps.service.Create(ctx, req, nil)
		assert.NoError(t, err)
	})

	t.Run("duplicate email discards upload", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()

		deps.repo.EXPECT().ExistsByEmail(ctx, "ada@x.com", "").Return(true, nil)
		deps.files.EXPECT().Delete(file.Name).Return(nil)

		_, err := deps.service.Create(ctx, validCreateRequest(), file)

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeAlreadyExists)
		assert.Equal(t, 409, apperror.ToHTTP(err).Status)
	})

	t.Run("unique violation from store maps to duplicate", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()

		deps.repo.EXPECT().ExistsByEmail(ctx, gomock.Any(), "").Return(false, nil)
		deps.repo.EXPECT().
			Create(ctx, gomock.Any()).
			Return(&pgconn.PgError{Code: "23505", ConstraintName: "uq_employee_email"})
		deps.files.EXPECT().Delete(file.Name).Return(nil)

		_, err := deps.service.Create(ctx, validCreateRequest(), file)

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeAlreadyExists)
	})

	t.Run("failure without picture touches no files", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()

		deps.repo.EXPECT().ExistsByEmail(ctx, gomock.Any(), "").Return(false, errors.New("db down"))

		_, err := deps.service.Create(ctx, validCreateRequest(), nil)

		assert.EqualError(t, err, "db down")
	})

	t.Run("timestamps are utc with microsecond precision", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()
		req := validCreateRequest()
		req.DateOfJoining = strPtr("2024-01-02T09:00:00.123456789+02:00")

		deps.repo.EXPECT().ExistsByEmail(ctx, gomock.Any(), "").Return(false, nil)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		resp, err := deps.service.Create(ctx, req, nil)

		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 1, 2, 7, 0, 0, 123456000, time.UTC), resp.DateOfJoining)
		for _, ts := range []time.Time{resp.CreatedAt, resp.UpdatedAt} {
			assert.Equal(t, time.UTC, ts.Location())
			assert.Equal(t, ts.Truncate(time.Microsecond), ts)
		}
		assert.Equal(t, resp.CreatedAt, resp.UpdatedAt)
	})

	t.Run("salary beyond storage precision is rejected before persisting", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()
		req := validCreateRequest()
		req.Salary = numPtr("120000.555")

		deps.repo.EXPECT().ExistsByEmail(ctx, gomock.Any(), "").Return(false, nil)
		deps.files.EXPECT().Delete(file.Name).Return(nil)

		_, err := deps.service.Create(ctx, req, file)

		require.ErrorIs(t, err, apperror.ErrValidation)
		assert.Equal(t, 400, apperror.ToHTTP(err).Status)
	})

	t.Run("numeric overflow from store is a validation error", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()

		deps.repo.EXPECT().ExistsByEmail(ctx, gomock.Any(), "").Return(false, nil)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(&pgconn.PgError{Code: "22003"})

		_, err := deps.service.Create(ctx, validCreateRequest(), nil)

		require.ErrorIs(t, err, apperror.ErrValidation)
		assert.Equal(t, 400, apperror.ToHTTP(err).Status)
	})

	t.Run("publish failure does not fail the create", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctx := context.Background()

		deps.repo.EXPECT().ExistsByEmail(ctx, gomock.Any(), "").Return(false, nil)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker unavailable"))

		_, err := deps.service.Create(ctx, validCreateRequest(), nil)

		assert.NoError(t, err)
	})
}

func TestEmployeeService_Update(t *testing.T) {
	ctx := context.Background()
	newFile := &upload.StoredFile{Name: "new.png"}

	t.Run("salary only leaves other fields unchanged", func(t *testing.T) {
		deps := setupServiceTest(t)
		empl := existingEmployee(strPtr("old.png"))
		id := empl.ID.String()

		deps.repo.EXPECT().FindByID(ctx, id).Return(empl, nil)
		deps.repo.EXPECT().
			Update(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, e *employee.Employee) error {
				assert.Equal(t, 90000.0, e.Salary)
				assert.Equal(t, "Grace", e.FirstName)
				assert.Equal(t, "grace@x.com", e.Email)
				assert.Equal(t, "old.png", *e.ProfilePicture)
				return nil
			})
		deps.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		resp, err := deps.service.Update(ctx, id, employee.EmployeeRequest{Salary: numPtr("90000")}, nil)

		require.NoError(t, err)
		assert.Equal(t, 90000.0, resp.Salary)
		assert.Equal(t, "Navy", resp.Department)
	})

	t.Run("zero salary is a real update", func(t *testing.T) {
		deps := setupServiceTest(t)
		empl := existingEmployee(nil)

		deps.repo.EXPECT().FindByID(ctx, empl.ID.String()).Return(empl, nil)
		deps.repo.EXPECT().Update(ctx, gomock.Any()).Return(nil)
		deps.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		resp, err := deps.service.Update(ctx, empl.ID.String(), employee.EmployeeRequest{Salary: numPtr("0")}, nil)

		require.NoError(t, err)
		assert.Equal(t, 0.0, resp.Salary)
	})

	t.Run("new picture replaces old after persist", func(t *testing.T) {
		deps := setupServiceTest(t)
		empl := existingEmployee(strPtr("old.png"))
		id := empl.ID.String()

		gomock.InOrder(
			deps.repo.EXPECT().FindByID(ctx, id).Return(empl, nil),
			deps.repo.EXPECT().
				Update(ctx, gomock.Any()).
				DoAndReturn(func(_ context.Context, e *employee.Employee) error {
					assert.Equal(t, "new.png", *e.ProfilePicture)
					return nil
				}),
			deps.files.EXPECT().Delete("old.png").Return(nil),
			deps.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil),
		)

		resp, err := deps.service.Update(ctx, id, employee.EmployeeRequest{}, newFile)

		require.NoError(t, err)
		assert.Equal(t, "/uploads/new.png", resp.ProfilePictureURL)
	})

	t.Run("missing record discards new upload", func(t *testing.T) {
		deps := setupServiceTest(t)
		id := uuid.NewString()

		deps.repo.EXPECT().FindByID(ctx, id).Return(nil, gorm.ErrRecordNotFound)
		deps.files.EXPECT().Delete("new.png").Return(nil)

		_, err := deps.service.Update(ctx, id, employee.EmployeeRequest{}, newFile)

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})

	t.Run("malformed id discards new upload", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.files.EXPECT().Delete("new.png").Return(nil)

		_, err := deps.service.Update(ctx, "42", employee.EmployeeRequest{}, newFile)

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})

	t.Run("email taken by another employee", func(t *testing.T) {
		deps := setupServiceTest(t)
		empl := existingEmployee(strPtr("old.png"))
		id := empl.ID.String()

		deps.repo.EXPECT().FindByID(ctx, id).Return(empl, nil)
		deps.repo.EXPECT().ExistsByEmail(ctx, "ada@x.com", id).Return(true, nil)
		deps.files.EXPECT().Delete("new.png").Return(nil)

		_, err := deps.service.Update(ctx, id, employee.EmployeeRequest{Email: strPtr("ada@x.com")}, newFile)

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeAlreadyExists)
	})

	t.Run("unchanged email skips uniqueness check", func(t *testing.T) {
		deps := setupServiceTest(t)
		empl := existingEmployee(nil)
		id := empl.ID.String()

		deps.repo.EXPECT().FindByID(ctx, id).Return(empl, nil)
		deps.repo.EXPECT().Update(ctx, gomock.Any()).Return(nil)
		deps.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		_, err := deps.service.Update(ctx, id, employee.EmployeeRequest{Email: strPtr("grace@x.com")}, nil)

		assert.NoError(t, err)
	})

	t.Run("persist failure keeps old picture", func(t *testing.T) {
		deps := setupServiceTest(t)
		empl := existingEmployee(strPtr("old.png"))
		id := empl.ID.String()

		deps.repo.EXPECT().FindByID(ctx, id).Return(empl, nil)
		deps.repo.EXPECT().Update(ctx, gomock.Any()).Return(errors.New("write failed"))
		deps.files.EXPECT().Delete("new.png").Return(nil)

		_, err := deps.service.Update(ctx, id, employee.EmployeeRequest{}, newFile)

		assert.Error(t, err)
	})
}

func TestEmployeeService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes picture and record", func(t *testing.T) {
		deps := setupServiceTest(t)
		empl := existingEmployee(strPtr("pic.png"))
		id := empl.ID.String()

		gomock.InOrder(
			deps.repo.EXPECT().FindByID(ctx, id).Return(empl, nil),
			deps.files.EXPECT().Delete("pic.png").Return(nil),
			deps.repo.EXPECT().Delete(ctx, id).Return(nil),
		)
		deps.publisher.EXPECT().
			Publish(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, ev events.EmployeeLifecycleEvent) error {
				assert.Equal(t, events.EmployeeDeleted, ev.EventType)
				assert.Equal(t, id, ev.EmployeeID)
				return nil
			})

		assert.NoError(t, deps.service.Delete(ctx, id))
	})

	t.Run("picture removal failure is tolerated", func(t *testing.T) {
		deps := setupServiceTest(t)
		empl := existingEmployee(strPtr("pic.png"))
		id := empl.ID.String()

		deps.repo.EXPECT().FindByID(ctx, id).Return(empl, nil)
		deps.files.EXPECT().Delete("pic.png").Return(errors.New("permission denied"))
		deps.repo.EXPECT().Delete(ctx, id).Return(nil)
		deps.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		assert.NoError(t, deps.service.Delete(ctx, id))
	})

	t.Run("missing record", func(t *testing.T) {
		deps := setupServiceTest(t)
		id := uuid.NewString()
		deps.repo.EXPECT().FindByID(ctx, id).Return(nil, gorm.ErrRecordNotFound)

		err := deps.service.Delete(ctx, id)

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
		assert.Equal(t, 404, apperror.ToHTTP(err).Status)
	})
}

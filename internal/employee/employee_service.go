package employee

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	employeeerrors "go-ems/internal/employee/errors"
	"go-ems/internal/events"
	"go-ems/internal/shared/apperror"
	"go-ems/internal/shared/contextutil"
	"go-ems/internal/upload"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	GetAll(ctx context.Context) ([]EmployeeResponse, error)
	GetByID(ctx context.Context, id string) (EmployeeResponse, error)
	Search(ctx context.Context, filter SearchFilter) ([]EmployeeResponse, error)
	Create(ctx context.Context, req EmployeeRequest, file *upload.StoredFile) (EmployeeResponse, error)
	Update(ctx context.Context, id string, req EmployeeRequest, file *upload.StoredFile) (EmployeeResponse, error)
	Delete(ctx context.Context, id string) error
}

// FileRemover deletes stored profile pictures by name.
type FileRemover interface {
	Delete(name string) error
}

type service struct {
	repo      Repository
	files     FileRemover
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, files FileRemover, publisher EventPublisher, logger ...*zap.Logger) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	if publisher == nil {
		publisher = NewNoopEventPublisher()
	}
	return &service{
		repo:      repo,
		files:     files,
		publisher: publisher,
		logger:    l,
		now:       func() time.Time { return storageTime(time.Now()) },
	}
}

func (s *service) GetAll(ctx context.Context) ([]EmployeeResponse, error) {
	s.logger.Debug("get all employees requested", zap.String("request_id", contextutil.GetRequestID(ctx)))

	emps, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("get all employees failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	return mapToListResponse(emps), nil
}

func (s *service) GetByID(ctx context.Context, id string) (EmployeeResponse, error) {
	s.logger.Debug("get employee by id requested",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("employee_id", id),
	)

	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
	}

	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return EmployeeResponse{}, s.repoFailure("get employee by id failed", id, err)
	}

	return mapToResponse(*empl), nil
}

func (s *service) Search(ctx context.Context, filter SearchFilter) ([]EmployeeResponse, error) {
	filter.Department = strings.TrimSpace(filter.Department)
	filter.Position = strings.TrimSpace(filter.Position)

	s.logger.Debug("search employees requested",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("department", filter.Department),
		zap.String("position", filter.Position),
	)

	if filter.Department == "" && filter.Position == "" {
		return nil, employeeerrors.ErrMissingSearchCriteria
	}

	emps, err := s.repo.Search(ctx, filter)
	if err != nil {
		s.logger.Error("search employees failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	return mapToListResponse(emps), nil
}

func (s *service) Create(
	ctx context.Context,
	req EmployeeRequest,
	file *upload.StoredFile,
) (resp EmployeeResponse, err error) {
	rid := contextutil.GetRequestID(ctx)
	email := deref(req.Email)
	s.logger.Debug("create employee requested",
		zap.String("request_id", rid),
		zap.String("email", email),
		zap.Bool("has_picture", file != nil),
	)

	defer func() {
		if err != nil {
			s.discardUpload(rid, file)
		}
	}()

	exists, err := s.repo.ExistsByEmail(ctx, email, "")
	if err != nil {
		s.logger.Error("create employee email check failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	if exists {
		s.logger.Warn("create employee duplicate email", zap.String("request_id", rid), zap.String("email", email))
		return EmployeeResponse{}, employeeerrors.ErrEmployeeAlreadyExists
	}

	salary, err := parseSalary(req.Salary)
	if err != nil {
		return EmployeeResponse{}, err
	}

	now := s.now()
	joinedAt := now
	if d := deref(req.DateOfJoining); d != "" {
		joinedAt, err = parseDateOfJoining(d)
		if err != nil {
			return EmployeeResponse{}, invalidDateOfJoining(d)
		}
	}

	empl := &Employee{
		ID:            uuid.New(),
		FirstName:     deref(req.FirstName),
		LastName:      deref(req.LastName),
		Email:         email,
		Position:      deref(req.Position),
		Department:    deref(req.Department),
		Salary:        salary,
		DateOfJoining: joinedAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if file != nil {
		empl.ProfilePicture = &file.Name
	}

	if err := s.repo.Create(ctx, empl); err != nil {
		s.logger.Error("create employee persist failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	s.publish(ctx, events.EmployeeCreated, empl)
	s.logger.Info("create employee success",
		zap.String("request_id", rid),
		zap.String("employee_id", empl.ID.String()),
	)

	return mapToResponse(*empl), nil
}

func (s *service) Update(
	ctx context.Context,
	id string,
	req EmployeeRequest,
	file *upload.StoredFile,
) (resp EmployeeResponse, err error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("update employee requested",
		zap.String("request_id", rid),
		zap.String("employee_id", id),
		zap.Bool("has_picture", file != nil),
	)

	defer func() {
		if err != nil {
			s.discardUpload(rid, file)
		}
	}()

	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
	}

	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return EmployeeResponse{}, s.repoFailure("update employee fetch existing failed", id, err)
	}

	if req.Email != nil && *req.Email != empl.Email {
		exists, err := s.repo.ExistsByEmail(ctx, *req.Email, id)
		if err != nil {
			s.logger.Error("update employee email check failed", zap.String("request_id", rid), zap.Error(err))
			return EmployeeResponse{}, mapRepositoryError(err)
		}
		if exists {
			s.logger.Warn("update employee duplicate email",
				zap.String("request_id", rid),
				zap.String("employee_id", id),
				zap.String("email", *req.Email),
			)
			return EmployeeResponse{}, employeeerrors.ErrEmployeeAlreadyExists
		}
	}

	if err := applyPatch(empl, req); err != nil {
		return EmployeeResponse{}, err
	}

	previousPicture := deref(empl.ProfilePicture)
	if file != nil {
		empl.ProfilePicture = &file.Name
	}
	empl.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, empl); err != nil {
		s.logger.Error("update employee persist failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if file != nil && previousPicture != "" && previousPicture != file.Name {
		s.removePicture(rid, id, previousPicture)
	}

	s.publish(ctx, events.EmployeeUpdated, empl)
	s.logger.Info("update employee success", zap.String("request_id", rid), zap.String("employee_id", id))

	return mapToResponse(*empl), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("delete employee requested",
		zap.String("request_id", rid),
		zap.String("employee_id", id),
	)

	if _, err := uuid.Parse(id); err != nil {
		return employeeerrors.ErrEmployeeNotFound
	}

	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.repoFailure("delete employee fetch existing failed", id, err)
	}

	if picture := deref(empl.ProfilePicture); picture != "" {
		s.removePicture(rid, id, picture)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.repoFailure("delete employee failed", id, err)
	}

	s.publish(ctx, events.EmployeeDeleted, empl)
	s.logger.Info("delete employee success", zap.String("request_id", rid), zap.String("employee_id", id))
	return nil
}

// repoFailure maps err and logs anything that is not a plain miss.
func (s *service) repoFailure(msg, id string, err error) error {
	mapped := mapRepositoryError(err)
	if mapped == employeeerrors.ErrEmployeeNotFound {
		s.logger.Warn(msg, zap.String("employee_id", id), zap.Error(err))
	} else {
		s.logger.Error(msg, zap.String("employee_id", id), zap.Error(err))
	}
	return mapped
}

func (s *service) discardUpload(rid string, file *upload.StoredFile) {
	if file == nil || s.files == nil {
		return
	}
	if err := s.files.Delete(file.Name); err != nil {
		s.logger.Error("discard uploaded picture failed",
			zap.String("request_id", rid),
			zap.String("file", file.Name),
			zap.Error(err),
		)
	}
}

func (s *service) removePicture(rid, employeeID, name string) {
	if s.files == nil {
		return
	}
	if err := s.files.Delete(name); err != nil {
		s.logger.Warn("remove profile picture failed",
			zap.String("request_id", rid),
			zap.String("employee_id", employeeID),
			zap.String("file", name),
			zap.Error(err),
		)
	}
}

func (s *service) publish(ctx context.Context, eventType string, empl *Employee) {
	event := events.EmployeeLifecycleEvent{
		EventType:  eventType,
		RequestID:  contextutil.GetRequestID(ctx),
		EmployeeID: empl.ID.String(),
		ActorID:    contextutil.GetUserID(ctx),
		Email:      empl.Email,
		OccurredAt: s.now().UTC(),
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, event); err != nil {
		s.logger.Warn("publish employee event failed",
			zap.String("event_type", eventType),
			zap.String("employee_id", event.EmployeeID),
			zap.Error(err),
		)
	}
}

func applyPatch(empl *Employee, req EmployeeRequest) error {
	if req.FirstName != nil {
		empl.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		empl.LastName = *req.LastName
	}
	if req.Email != nil {
		empl.Email = *req.Email
	}
	if req.Position != nil {
		empl.Position = *req.Position
	}
	if req.Department != nil {
		empl.Department = *req.Department
	}
	if req.Salary != nil {
		salary, err := parseSalary(req.Salary)
		if err != nil {
			return err
		}
		empl.Salary = salary
	}
	if d := deref(req.DateOfJoining); d != "" {
		joinedAt, err := parseDateOfJoining(d)
		if err != nil {
			return invalidDateOfJoining(d)
		}
		empl.DateOfJoining = joinedAt
	}
	return nil
}

func parseSalary(n *json.Number) (float64, error) {
	if v, ok := checkSalary(n); !ok {
		return 0, apperror.ValidationFailed([]apperror.FieldViolation{v})
	}
	return strconv.ParseFloat(strings.TrimSpace(n.String()), 64)
}

func invalidDateOfJoining(value string) error {
	return apperror.ValidationFailed([]apperror.FieldViolation{
		{Field: "dateOfJoining", Message: "Date Of Joining is invalid", Value: value},
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

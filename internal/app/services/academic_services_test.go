package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/collegeerp/internal/app/models"
	"github.com/yigit/collegeerp/internal/app/models/dto"
	"github.com/yigit/collegeerp/internal/app/models/dto/enums"
	"github.com/yigit/collegeerp/internal/app/repositories"
	"github.com/yigit/collegeerp/internal/app/session"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
)

type fakeDepartments struct {
	departments map[uuid.UUID]*models.Department
}

func newFakeDepartments() *fakeDepartments {
	return &fakeDepartments{departments: map[uuid.UUID]*models.Department{}}
}

func (f *fakeDepartments) Create(_ context.Context, d *models.Department) error {
	for _, existing := range f.departments {
		if existing.Code == d.Code || existing.Name == d.Name {
			return apperrors.ErrDepartmentAlreadyExists
		}
	}
	d.ID = uuid.New()
	f.departments[d.ID] = d
	return nil
}

func (f *fakeDepartments) GetByID(_ context.Context, id uuid.UUID) (*models.Department, error) {
	if d, ok := f.departments[id]; ok {
		return d, nil
	}
	return nil, apperrors.ErrDepartmentNotFound
}

func (f *fakeDepartments) GetAll(context.Context) ([]*models.Department, error) {
	out := make([]*models.Department, 0, len(f.departments))
	for _, d := range f.departments {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDepartments) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.departments[id]; !ok {
		return apperrors.ErrDepartmentNotFound
	}
	delete(f.departments, id)
	return nil
}

type fakeCourses struct {
	courses []*models.Course
}

func (f *fakeCourses) Create(_ context.Context, c *models.Course) error {
	c.ID = uuid.New()
	f.courses = append(f.courses, c)
	return nil
}

func (f *fakeCourses) GetByID(_ context.Context, id uuid.UUID) (*models.Course, error) {
	for _, c := range f.courses {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, apperrors.ErrCourseNotFound
}

func (f *fakeCourses) List(_ context.Context, departmentID *uuid.UUID) ([]*models.Course, error) {
	out := []*models.Course{}
	for _, c := range f.courses {
		if departmentID == nil || c.DepartmentID == *departmentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCourses) Delete(_ context.Context, id uuid.UUID) error {
	for i, c := range f.courses {
		if c.ID == id {
			f.courses = append(f.courses[:i], f.courses[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrCourseNotFound
}

func TestDepartmentService_Create(t *testing.T) {
	publisher := &recordingPublisher{}
	svc := NewDepartmentService(newFakeDepartments(), publisher, zerolog.Nop())

	dept, err := svc.CreateDepartment(context.Background(), &dto.CreateDepartmentRequest{Name: "  Computer Science ", Code: " cse "})
	require.NoError(t, err)
	assert.Equal(t, "Computer Science", dept.Name)
	assert.Equal(t, "CSE", dept.Code)

	_, err = svc.CreateDepartment(context.Background(), &dto.CreateDepartmentRequest{Name: "Other", Code: "C"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.CreateDepartment(context.Background(), &dto.CreateDepartmentRequest{Name: "Computer Science", Code: "CS2"})
	assert.ErrorIs(t, err, apperrors.ErrDepartmentAlreadyExists)

	require.NoError(t, svc.DeleteDepartment(context.Background(), dept.ID))
	assert.ErrorIs(t, svc.DeleteDepartment(context.Background(), dept.ID), apperrors.ErrDepartmentNotFound)

	changes := publisher.published()
	require.Len(t, changes, 2)
	assert.Equal(t, string(enums.ChangeInsert), changes[0].Type)
	assert.Equal(t, string(enums.ChangeDelete), changes[1].Type)
}

func TestCourseService(t *testing.T) {
	departments := newFakeDepartments()
	dept := &models.Department{Name: "Computer Science", Code: "CSE"}
	require.NoError(t, departments.Create(context.Background(), dept))

	users := newFakeUsers()
	teacher := &models.User{Email: "t@example.com"}
	users.add(teacher, &models.Profile{Role: session.RoleTeacher, DepartmentID: &dept.ID})
	drifter := &models.User{Email: "d@example.com"}
	users.add(drifter, &models.Profile{Role: session.RoleTeacher})

	svc := NewCourseService(&fakeCourses{}, departments, users, nil, zerolog.Nop())
	ctx := context.Background()

	course, err := svc.CreateCourse(ctx, &dto.CreateCourseRequest{Name: "Data Structures", Code: "cs201", DepartmentID: dept.ID, Credits: 4})
	require.NoError(t, err)
	assert.Equal(t, "CS201", course.Code)
	require.NotNil(t, course.DepartmentName)
	assert.Equal(t, "Computer Science", *course.DepartmentName)

	_, err = svc.CreateCourse(ctx, &dto.CreateCourseRequest{Name: "X", Code: "X1", DepartmentID: dept.ID, Credits: 0})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.CreateCourse(ctx, &dto.CreateCourseRequest{Name: "X", Code: "X1", DepartmentID: uuid.New(), Credits: 3})
	assert.ErrorIs(t, err, apperrors.ErrDepartmentNotFound)

	mine, err := svc.ListTeacherCourses(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	mine, err = svc.ListTeacherCourses(ctx, drifter.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	mine, err = svc.ListTeacherCourses(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, mine)
}

type fakeAttendance struct {
	upserted []*models.Attendance
	filter   repositories.AttendanceFilter
}

func (f *fakeAttendance) Upsert(_ context.Context, records []*models.Attendance) error {
	f.upserted = append(f.upserted, records...)
	return nil
}

func (f *fakeAttendance) ListByStudent(context.Context, uuid.UUID) ([]*models.Attendance, error) {
	return f.upserted, nil
}

func (f *fakeAttendance) List(_ context.Context, filter repositories.AttendanceFilter) ([]*models.Attendance, error) {
	f.filter = filter
	return f.upserted, nil
}

func TestMarkAttendance(t *testing.T) {
	store := &fakeAttendance{}
	publisher := &recordingPublisher{}
	svc := NewAttendanceService(store, publisher, zerolog.Nop())

	a, b := uuid.New(), uuid.New()
	result, err := svc.MarkAttendance(context.Background(), &dto.MarkAttendanceRequest{
		CourseID: uuid.New(),
		Date:     "2024-03-04",
		Entries: []dto.AttendanceEntry{
			{StudentID: a, Present: true, Reason: "ignored"},
			{StudentID: b, Present: false, Reason: " sick "},
			{StudentID: a, Present: false},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)

	require.Len(t, store.upserted, 2)
	assert.Equal(t, a, store.upserted[0].StudentID)
	assert.Equal(t, models.AttendanceAbsent, store.upserted[0].Status)
	assert.Nil(t, store.upserted[0].Reason)
	assert.Equal(t, models.AttendanceAbsent, store.upserted[1].Status)
	require.NotNil(t, store.upserted[1].Reason)
	assert.Equal(t, "sick", *store.upserted[1].Reason)
	assert.Len(t, publisher.published(), 1)

	_, err = svc.MarkAttendance(context.Background(), &dto.MarkAttendanceRequest{Date: "04/03/2024", Entries: []dto.AttendanceEntry{{StudentID: a}}})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.ListAttendance(context.Background(), nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	deptID := uuid.New()
	_, err = svc.ListAttendance(context.Background(), &day, &deptID)
	require.NoError(t, err)
	assert.Equal(t, repositories.AttendanceFilter{Date: day, DepartmentID: &deptID}, store.filter)
}

func TestGrade(t *testing.T) {
	cases := map[float64]string{
		100: "A+", 90: "A+", 89.5: "A", 80: "A", 70: "B+", 60: "B",
		55: "C+", 40: "C", 39.9: "F", 0: "F",
	}
	for score, want := range cases {
		assert.Equal(t, want, Grade(score), "score %v", score)
	}
}

type fakeMarks struct {
	upserted []*models.Mark
	filter   repositories.MarkFilter
}

func (f *fakeMarks) Upsert(_ context.Context, marks []*models.Mark) error {
	f.upserted = append(f.upserted, marks...)
	return nil
}

func (f *fakeMarks) ListByStudent(context.Context, uuid.UUID) ([]*models.Mark, error) {
	return f.upserted, nil
}

func (f *fakeMarks) List(_ context.Context, filter repositories.MarkFilter) ([]*models.Mark, error) {
	f.filter = filter
	return f.upserted, nil
}

func score(v float64) *float64 { return &v }

func TestUploadMarks(t *testing.T) {
	store := &fakeMarks{}
	svc := NewMarkService(store, nil, zerolog.Nop())
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	result, err := svc.UploadMarks(context.Background(), &dto.UploadMarksRequest{
		CourseID: uuid.New(),
		Entries: []dto.MarkEntry{
			{StudentID: a, Marks: score(91)},
			{StudentID: b},
			{StudentID: c, Marks: score(45)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	require.Len(t, store.upserted, 2)
	assert.Equal(t, "A+", store.upserted[0].Grade)
	assert.Equal(t, "C", store.upserted[1].Grade)

	_, err = svc.UploadMarks(context.Background(), &dto.UploadMarksRequest{Entries: []dto.MarkEntry{{StudentID: a}}})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.UploadMarks(context.Background(), &dto.UploadMarksRequest{Entries: []dto.MarkEntry{{StudentID: a, Marks: score(101)}}})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.ListMarks(context.Background(), nil, " 2 ", " data ")
	require.NoError(t, err)
	require.NotNil(t, store.filter.Year)
	assert.Equal(t, "2", *store.filter.Year)
	assert.Equal(t, "data", store.filter.CourseName)
}

func TestApplyPayment(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	fee := &models.Fee{Amount: 1000, Status: models.FeeOutstanding}
	require.NoError(t, applyPayment(fee, 400, now))
	assert.Equal(t, 600.0, fee.Amount)
	assert.Equal(t, models.FeeOutstanding, fee.Status)
	assert.Nil(t, fee.PaidAt)

	require.NoError(t, applyPayment(fee, 600, now))
	assert.Equal(t, 0.0, fee.Amount)
	assert.Equal(t, models.FeePaid, fee.Status)
	require.NotNil(t, fee.PaidAt)
	assert.Equal(t, now, *fee.PaidAt)

	fee = &models.Fee{Amount: 100, Status: models.FeeOutstanding}
	assert.ErrorIs(t, applyPayment(fee, 0, now), apperrors.ErrInvalidPayment)
	assert.ErrorIs(t, applyPayment(fee, -5, now), apperrors.ErrInvalidPayment)
	assert.ErrorIs(t, applyPayment(fee, 100.01, now), apperrors.ErrPaymentExceedsDue)
	assert.Equal(t, 100.0, fee.Amount)
}

type fakeFees struct {
	fees   map[uuid.UUID]*models.Fee
	status *models.FeeStatus
}

func (f *fakeFees) Create(_ context.Context, fee *models.Fee) error {
	fee.ID = uuid.New()
	f.fees[fee.ID] = fee
	return nil
}

func (f *fakeFees) List(_ context.Context, status *models.FeeStatus) ([]*models.Fee, error) {
	f.status = status
	return nil, nil
}

func (f *fakeFees) ListByStudent(context.Context, uuid.UUID) ([]*models.Fee, error) {
	return nil, nil
}

func (f *fakeFees) ApplyPayment(_ context.Context, id uuid.UUID, apply func(*models.Fee) error) (*models.Fee, error) {
	fee, ok := f.fees[id]
	if !ok {
		return nil, apperrors.ErrFeeNotFound
	}
	cp := *fee
	if err := apply(&cp); err != nil {
		return nil, err
	}
	f.fees[id] = &cp
	return &cp, nil
}

func TestFeeService(t *testing.T) {
	store := &fakeFees{fees: map[uuid.UUID]*models.Fee{}}
	publisher := &recordingPublisher{}
	svc := NewFeeService(store, publisher, zerolog.Nop())
	ctx := context.Background()

	fee, err := svc.CreateFee(ctx, &dto.CreateFeeRequest{StudentID: uuid.New(), FeeType: "Tuition", Amount: 500, DueDate: "2024-06-30"})
	require.NoError(t, err)
	assert.Equal(t, models.FeeOutstanding, fee.Status)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), fee.DueDate)

	paid, err := svc.RecordPayment(ctx, fee.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, models.FeePaid, paid.Status)

	_, err = svc.RecordPayment(ctx, fee.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrPaymentExceedsDue)

	_, err = svc.RecordPayment(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, apperrors.ErrFeeNotFound)

	_, err = svc.ListFees(ctx, "all")
	require.NoError(t, err)
	assert.Nil(t, store.status)

	_, err = svc.ListFees(ctx, "Paid")
	require.NoError(t, err)
	require.NotNil(t, store.status)
	assert.Equal(t, models.FeePaid, *store.status)

	_, err = svc.ListFees(ctx, "Overdue")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	assert.Len(t, publisher.published(), 2)
}

type fakeODRequests struct {
	created   []*models.ODRequest
	createErr error
}

func (f *fakeODRequests) Create(_ context.Context, req *models.ODRequest) error {
	if f.createErr != nil {
		return f.createErr
	}
	req.ID = uuid.New()
	f.created = append(f.created, req)
	return nil
}

func (f *fakeODRequests) List(context.Context, *models.ODStatus) ([]*models.ODRequest, error) {
	return f.created, nil
}

func (f *fakeODRequests) ListByStudent(context.Context, uuid.UUID) ([]*models.ODRequest, error) {
	return f.created, nil
}

func (f *fakeODRequests) UpdateStatus(_ context.Context, id uuid.UUID, status models.ODStatus) (*models.ODRequest, error) {
	for _, r := range f.created {
		if r.ID == id {
			r.Status = status
			return r, nil
		}
	}
	return nil, apperrors.ErrODRequestNotFound
}

func newTestODService(requests *fakeODRequests, objects *memoryObjects) *ODService {
	svc := NewODService(requests, objects, nil, zerolog.Nop())
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc
}

func TestODService_SubmitWithDocument(t *testing.T) {
	requests := &fakeODRequests{}
	objects := newMemoryObjects()
	svc := newTestODService(requests, objects)
	studentID := uuid.New()

	req, err := svc.SubmitRequest(context.Background(), SubmitODInput{
		StudentID:   studentID,
		Reason:      " Symposium ",
		RequestDate: "2024-02-10",
		Document:    &ODDocument{Filename: "Letter.PDF", Content: strings.NewReader("%PDF")},
	})
	require.NoError(t, err)

	assert.Equal(t, models.ODPending, req.Status)
	assert.Equal(t, "Symposium", req.Reason)
	path := studentID.String() + "/1700000000000.pdf"
	require.NotNil(t, req.SupportingDocumentURL)
	assert.Equal(t, "http://files.test/storage/od_documents/"+path, *req.SupportingDocumentURL)
	assert.Equal(t, "%PDF", objects.objects["od_documents/"+path])

	updated, err := svc.UpdateStatus(context.Background(), req.ID, "Approved")
	require.NoError(t, err)
	assert.Equal(t, models.ODApproved, updated.Status)

	_, err = svc.UpdateStatus(context.Background(), req.ID, "Pending")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestODService_RejectsBadDocument(t *testing.T) {
	objects := newMemoryObjects()
	svc := newTestODService(&fakeODRequests{}, objects)

	_, err := svc.SubmitRequest(context.Background(), SubmitODInput{
		StudentID:   uuid.New(),
		Reason:      "Hackathon",
		RequestDate: "2024-02-10",
		Document:    &ODDocument{Filename: "run.exe", Content: strings.NewReader("MZ")},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Empty(t, objects.objects)
}

func TestODService_RemovesDocumentWhenInsertFails(t *testing.T) {
	objects := newMemoryObjects()
	svc := newTestODService(&fakeODRequests{createErr: errors.New("insert failed")}, objects)

	_, err := svc.SubmitRequest(context.Background(), SubmitODInput{
		StudentID:   uuid.New(),
		Reason:      "Hackathon",
		RequestDate: "2024-02-10",
		Document:    &ODDocument{Filename: "proof.png", Content: strings.NewReader("png")},
	})
	require.Error(t, err)
	assert.Empty(t, objects.objects)
	assert.Len(t, objects.deleted, 1)
}

type fakeChats struct {
	messages []*models.ChatMessage
}

func (f *fakeChats) Create(_ context.Context, m *models.ChatMessage) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeChats) GetSender(context.Context, uuid.UUID) (*models.ChatSender, error) {
	return &models.ChatSender{FirstName: "Ravi", LastName: "K"}, nil
}

func (f *fakeChats) ListByCourse(_ context.Context, courseID uuid.UUID, limit uint64) ([]*models.ChatMessage, error) {
	out := []*models.ChatMessage{}
	for _, m := range f.messages {
		if m.CourseID == courseID {
			out = append(out, m)
		}
	}
	if limit > 0 && uint64(len(out)) > limit {
		out = out[uint64(len(out))-limit:]
	}
	return out, nil
}

func TestChatService_PostMessage(t *testing.T) {
	publisher := &recordingPublisher{}
	svc := NewChatService(&fakeChats{}, publisher, zerolog.Nop())
	courseID := uuid.New()

	msg, err := svc.PostMessage(context.Background(), courseID, uuid.New(), "  hello class  ")
	require.NoError(t, err)
	assert.Equal(t, "hello class", msg.MessageText)
	require.NotNil(t, msg.Sender)
	assert.Equal(t, "Ravi", msg.Sender.FirstName)

	changes := publisher.published()
	require.Len(t, changes, 1)
	assert.Equal(t, enums.TableChats, changes[0].Table)
	assert.Equal(t, courseID.String(), changes[0].Key)

	_, err = svc.PostMessage(context.Background(), courseID, uuid.New(), "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.PostMessage(context.Background(), courseID, uuid.New(), strings.Repeat("x", MaxChatMessageLength+1))
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	history, err := svc.ListMessages(context.Background(), courseID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestChatService_HistoryKeepsNewestMessages(t *testing.T) {
	chats := &fakeChats{}
	svc := NewChatService(chats, nil, zerolog.Nop())
	courseID := uuid.New()

	for i := 0; i < chatHistoryLimit+10; i++ {
		_, err := svc.PostMessage(context.Background(), courseID, uuid.New(), fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	history, err := svc.ListMessages(context.Background(), courseID)
	require.NoError(t, err)
	require.Len(t, history, chatHistoryLimit)
	assert.Equal(t, "message 10", history[0].MessageText)
	assert.Equal(t, fmt.Sprintf("message %d", chatHistoryLimit+9), history[len(history)-1].MessageText)
}

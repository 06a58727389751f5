package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	questionSheet = "Câu hỏi"
	studentSheet  = "Học sinh"

	maxOptions = models.MaxQuestionOptions
	dateLayout = "02/01/2006"
)

var questionHeader = []string{
	"STT", "Câu hỏi", "Loại", "A", "B", "C", "D", "E", "F", "Đáp án đúng", "Điểm", "Giải thích",
}

var studentHeader = []string{
	"Mã học sinh", "Họ và tên", "Lớp", "Email", "Số điện thoại", "Ngày sinh", "Giới tính",
}

// column positions in questionHeader
const (
	colQuestion    = 1
	colType        = 2
	colFirstOption = 3
	colCorrect     = colFirstOption + maxOptions
	colPoints      = colCorrect + 1
	colExplanation = colPoints + 1
)

type importExportService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewImportExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) ImportExportService {
	return &importExportService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== EXAM QUESTIONS =====

func (s *importExportService) ExportExam(ctx context.Context, examID uint, actor Actor) (*ExportFile, error) {
	exam, err := s.ownedExam(ctx, examID, actor, "export")
	if err != nil {
		return nil, err
	}

	f, err := newWorkbook(questionSheet, questionHeader)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for i, q := range exam.Questions {
		row := make([]interface{}, len(questionHeader))
		row[0] = i + 1
		row[colQuestion] = q.Question
		row[colType] = questionTypeLabel(q.Type)
		for j := 0; j < maxOptions && j < len(q.Answers); j++ {
			row[colFirstOption+j] = q.Answers[j]
		}
		if q.Correct != nil && !q.IsEssay() {
			row[colCorrect] = string(rune('A' + *q.Correct))
		}
		row[colPoints] = q.Weight()
		row[colExplanation] = q.Explanation
		if err := setRow(f, questionSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Exam exported", "exam_id", examID, "questions", len(exam.Questions))
	return writeWorkbook(f, fmt.Sprintf("exam-%d.xlsx", examID))
}

// ImportQuestions appends the valid rows of a question sheet to a draft exam.
func (s *importExportService) ImportQuestions(ctx context.Context, examID uint, r io.Reader, actor Actor) (*ImportQuestionsResult, error) {
	exam, err := s.ownedExam(ctx, examID, actor, "import into")
	if err != nil {
		return nil, err
	}
	if exam.Status != models.ExamDraft {
		return nil, ErrExamNotEditable
	}

	rows, err := readRows(r, questionSheet)
	if err != nil {
		return nil, err
	}

	questions, rowErrors := ParseQuestionRows(rows)
	result := &ImportQuestionsResult{Errors: rowErrors, Exam: exam}
	if result.Errors == nil {
		result.Errors = []RowError{}
	}
	if len(questions) == 0 {
		return result, nil
	}

	exam.Questions = append(exam.Questions, validator.QuestionsToModel(questions)...)
	exam.Type = models.InferType(exam.Questions)
	if err := s.repo.Exam().Update(ctx, s.db, exam); err != nil {
		return nil, fmt.Errorf("failed to save imported questions: %w", err)
	}

	result.Imported = len(questions)
	s.logger.Info("Questions imported", "exam_id", examID, "imported", result.Imported, "rejected", len(rowErrors))
	return result, nil
}

func (s *importExportService) Template() (*ExportFile, error) {
	f, err := newWorkbook(questionSheet, questionHeader)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	samples := [][]interface{}{
		{1, "Thủ đô của Việt Nam là thành phố nào?", "Trắc nghiệm", "Huế", "Hà Nội", "Đà Nẵng", "TP. Hồ Chí Minh", "", "", "B", 1, "Hà Nội là thủ đô từ năm 1976."},
		{2, "Trình bày cảm nhận của em về bài thơ Sang thu.", "Tự luận", "", "", "", "", "", "", "", 2, ""},
	}
	for i, row := range samples {
		if err := setRow(f, questionSheet, i+2, row); err != nil {
			return nil, err
		}
	}
	return writeWorkbook(f, "exam-template.xlsx")
}

// ParseQuestionRows converts sheet rows (header first) into question requests.
// Rejected rows are reported with their 1-based sheet row number.
func ParseQuestionRows(rows [][]string) ([]QuestionRequest, []RowError) {
	var (
		out       []QuestionRequest
		rowErrors []RowError
	)
	for i, row := range rows {
		if i == 0 || isBlankRow(row) {
			continue
		}
		rowNum := i + 1

		q := QuestionRequest{
			Question:    cell(row, colQuestion),
			Explanation: cell(row, colExplanation),
		}

		qType, ok := parseQuestionType(cell(row, colType))
		if !ok {
			rowErrors = append(rowErrors, RowError{Row: rowNum, Message: fmt.Sprintf("unknown question type %q", cell(row, colType))})
			continue
		}
		q.Type = qType

		if raw := cell(row, colPoints); raw != "" {
			points, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
			if err != nil || points < 0 {
				rowErrors = append(rowErrors, RowError{Row: rowNum, Message: fmt.Sprintf("invalid points %q", raw)})
				continue
			}
			q.Points = points
		}

		if qType == models.QuestionMultipleChoice {
			answers, err := optionCells(row)
			if err != nil {
				rowErrors = append(rowErrors, RowError{Row: rowNum, Message: err.Error()})
				continue
			}
			q.Answers = answers
			if correct, ok := parseOptionLetter(cell(row, colCorrect)); ok {
				q.Correct = &correct
			}
		}

		if verrs := validator.ValidateQuestions("question", []QuestionRequest{q}); len(verrs) > 0 {
			rowErrors = append(rowErrors, RowError{Row: rowNum, Message: verrs.Error()})
			continue
		}
		out = append(out, q)
	}
	return out, rowErrors
}

// ===== ROSTER =====

func (s *importExportService) ExportStudents(ctx context.Context, className *string, actor Actor) (*ExportFile, error) {
	students, _, err := s.repo.Student().List(ctx, s.db, repositories.StudentFilters{
		TeacherID: actor.UserID,
		ClassName: className,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	f, err := newWorkbook(studentSheet, studentHeader)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for i, st := range students {
		dob := ""
		if st.DateOfBirth != nil {
			dob = st.DateOfBirth.Format(dateLayout)
		}
		row := []interface{}{st.StudentCode, st.FullName, st.ClassName, st.Email, st.Phone, dob, genderLabel(st.Gender)}
		if err := setRow(f, studentSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	name := "students.xlsx"
	if className != nil && *className != "" {
		name = fmt.Sprintf("students-%s.xlsx", *className)
	}
	return writeWorkbook(f, name)
}

// ImportStudents creates roster entries. Codes that already exist for the
// teacher, or repeat within the file, are skipped.
func (s *importExportService) ImportStudents(ctx context.Context, r io.Reader, actor Actor) (*ImportStudentsResult, error) {
	rows, err := readRows(r, studentSheet)
	if err != nil {
		return nil, err
	}

	result := &ImportStudentsResult{Errors: []RowError{}}
	seen := make(map[string]bool)
	var batch []*models.Student

	for i, row := range rows {
		if i == 0 || isBlankRow(row) {
			continue
		}
		rowNum := i + 1

		req := &StudentRequest{
			StudentCode: cell(row, 0),
			FullName:    cell(row, 1),
			ClassName:   cell(row, 2),
			Email:       cell(row, 3),
			Phone:       cell(row, 4),
			Gender:      parseGender(cell(row, 6)),
		}
		if raw := cell(row, 5); raw != "" {
			dob, err := time.Parse(dateLayout, raw)
			if err != nil {
				result.Errors = append(result.Errors, RowError{Row: rowNum, Message: fmt.Sprintf("invalid date of birth %q, expected dd/mm/yyyy", raw)})
				continue
			}
			req.DateOfBirth = &dob
		}
		if err := s.validator.Validate(req); err != nil {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}

		code := strings.ToLower(req.StudentCode)
		if seen[code] {
			result.Skipped++
			continue
		}
		seen[code] = true

		_, err := s.repo.Student().GetByCode(ctx, s.db, actor.UserID, req.StudentCode)
		if err == nil {
			result.Skipped++
			continue
		}
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to check student code: %w", err)
		}

		student := &models.Student{TeacherID: actor.UserID}
		applyStudentRequest(student, req)
		batch = append(batch, student)
	}

	if len(batch) > 0 {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.repo.Student().CreateBatch(ctx, tx, batch)
		})
		if err != nil {
			if repositories.IsDuplicateError(err) {
				return nil, ErrDuplicateStudentCode
			}
			return nil, fmt.Errorf("failed to import students: %w", err)
		}
	}

	result.Created = len(batch)
	s.logger.Info("Students imported",
		"teacher_id", actor.UserID,
		"created", result.Created,
		"skipped", result.Skipped,
		"rejected", len(result.Errors))
	return result, nil
}

// ===== HELPERS =====

func (s *importExportService) ownedExam(ctx context.Context, examID uint, actor Actor, action string) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, s.db, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if !actor.owns(exam.TeacherID) {
		return nil, NewPermissionError(actor.UserID, examID, "exam", action, "not the exam owner")
	}
	return exam, nil
}

func newWorkbook(sheet string, header []string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := setRow(f, sheet, 1, row); err != nil {
		f.Close()
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(sheet, "A1", last, style)
	}
	_ = f.SetColWidth(sheet, "B", "B", 50)
	return f, nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	start, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", rowNum, err)
	}
	if err := f.SetSheetRow(sheet, start, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

func writeWorkbook(f *excelize.File, name string) (*ExportFile, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return &ExportFile{FileName: name, ContentType: xlsxContentType, Data: buf.Bytes()}, nil
}

// readRows reads the named sheet, falling back to the first one.
func readRows(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrInvalidFile
	}
	name := sheets[0]
	for _, s := range sheets {
		if s == sheet {
			name = s
			break
		}
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return rows, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func questionTypeLabel(t models.QuestionType) string {
	if t == models.QuestionEssay {
		return "Tự luận"
	}
	return "Trắc nghiệm"
}

func parseQuestionType(s string) (models.QuestionType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "trắc nghiệm", "trac nghiem", "tn", "multiple_choice", "multiple choice", "mc":
		return models.QuestionMultipleChoice, true
	case "tự luận", "tu luan", "tl", "essay":
		return models.QuestionEssay, true
	}
	return "", false
}

// optionCells reads the A..F columns by position, dropping trailing blanks so
// each letter keeps its column. A blank before a filled option is rejected.
func optionCells(row []string) ([]string, error) {
	opts := make([]string, maxOptions)
	last := -1
	for j := range opts {
		opts[j] = cell(row, colFirstOption+j)
		if opts[j] != "" {
			last = j
		}
	}
	if last < 0 {
		return nil, nil
	}
	opts = opts[:last+1]
	for j, opt := range opts {
		if opt == "" {
			return nil, fmt.Errorf("option %c is blank but a later option is filled", rune('A'+j))
		}
	}
	return opts, nil
}

// parseOptionLetter maps A..F (or a 1-based number) to an option index.
func parseOptionLetter(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if len(s) == 1 && s[0] >= 'A' && s[0] < 'A'+maxOptions {
		return int(s[0] - 'A'), true
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= maxOptions {
		return n - 1, true
	}
	return 0, false
}

func genderLabel(g models.Gender) string {
	switch g {
	case models.GenderMale:
		return "Nam"
	case models.GenderFemale:
		return "Nữ"
	case models.GenderOther:
		return "Khác"
	}
	return ""
}

func parseGender(s string) models.Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nam", "male", "m":
		return models.GenderMale
	case "nữ", "nu", "female", "f":
		return models.GenderFemale
	case "khác", "khac", "other":
		return models.GenderOther
	}
	return ""
}

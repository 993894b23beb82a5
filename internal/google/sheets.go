// Package google зеркалирует проживания и журнал баллов в Google Sheets.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"bezero/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	staysSheetName  = "Stays"
	ledgerSheetName = "Ledger"
)

type SheetsService struct {
	service       *sheets.Service
	staysSheetID  string
	ledgerSheetID string

	// Кэш строк журнала: id транзакции -> номер строки листа.
	rowCache map[int64]int
	cacheMu  sync.RWMutex
}

func NewSheetsService(credentialsFile, staysSheetID, ledgerSheetID string) (*SheetsService, error) {
	ctx := context.Background()

	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	return &SheetsService{
		service:       srv,
		staysSheetID:  staysSheetID,
		ledgerSheetID: ledgerSheetID,
		rowCache:      make(map[int64]int),
	}, nil
}

// TestConnection проверяет подключение к таблице
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.staysSheetID, staysSheetName+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// GetServiceAccountEmail возвращает email сервисного аккаунта
func (s *SheetsService) GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}

// UpdateStaysSheet полностью перезаписывает лист проживаний.
func (s *SheetsService) UpdateStaysSheet(ctx context.Context, stays []*models.RoomStay) error {
	values := [][]interface{}{
		{"ID", "User ID", "Guest House ID", "Room ID", "Check In", "Check Out", "Status", "Created At", "Updated At"},
	}
	for _, stay := range stays {
		values = append(values, stayRowValues(stay))
	}

	clearRange := staysSheetName + "!A:Z"
	if _, err := s.service.Spreadsheets.Values.Clear(s.staysSheetID, clearRange, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear stays sheet: %v", err)
	}

	rangeData := fmt.Sprintf("%s!A1:I%d", staysSheetName, len(values))
	_, err := s.service.Spreadsheets.Values.Update(s.staysSheetID, rangeData, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// AppendLedgerEntry добавляет одну проводку в конец журнала. Журнал
// append-only, существующие строки не трогаем.
func (s *SheetsService) AppendLedgerEntry(ctx context.Context, tx *models.PointTransaction) error {
	if tx == nil {
		return fmt.Errorf("transaction is nil")
	}

	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{ledgerRowValues(tx)},
	}
	_, err := s.service.Spreadsheets.Values.Append(s.ledgerSheetID, ledgerSheetName+"!A:A", valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// ReplaceLedgerSheet перезаписывает журнал целиком. Используется планировщиком
// для сверки: отдельные строки могли потеряться при сбоях очереди.
func (s *SheetsService) ReplaceLedgerSheet(ctx context.Context, txs []*models.PointTransaction) error {
	clearRange := ledgerSheetName + "!A2:Z"
	if _, err := s.service.Spreadsheets.Values.Clear(s.ledgerSheetID, clearRange, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear ledger sheet: %v", err)
	}

	var values [][]interface{}
	for _, tx := range txs {
		values = append(values, ledgerRowValues(tx))
	}
	if len(values) == 0 {
		return nil
	}

	_, err := s.service.Spreadsheets.Values.Update(s.ledgerSheetID, ledgerSheetName+"!A2", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update ledger sheet: %v", err)
	}

	s.cacheMu.Lock()
	s.rowCache = make(map[int64]int)
	for i, tx := range txs {
		s.rowCache[tx.ID] = i + 2 // данные начинаются со второй строки
	}
	s.cacheMu.Unlock()

	return nil
}

// GetSheetIdByName возвращает ID листа по его названию
func (s *SheetsService) GetSheetIdByName(ctx context.Context, spreadID, sheetName string) (int64, error) {
	spreadsheet, err := s.service.Spreadsheets.Get(spreadID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to get spreadsheet: %v", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == sheetName {
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet '%s' not found", sheetName)
}

// ClearCache clears the row index cache.
func (s *SheetsService) ClearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int)
}

func stayRowValues(stay *models.RoomStay) []interface{} {
	return []interface{}{
		stay.ID,
		stay.UserID,
		stay.GuestHouseID,
		stay.RoomID,
		stay.CheckIn.Format("2006-01-02"),
		stay.CheckOut.Format("2006-01-02"),
		stay.Status,
		stay.CreatedAt.Format("2006-01-02 15:04:05"),
		stay.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func ledgerRowValues(tx *models.PointTransaction) []interface{} {
	return []interface{}{
		tx.ID,
		tx.UserID,
		tx.Type,
		tx.Amount,
		tx.BalanceBefore,
		tx.BalanceAfter,
		tx.ReferenceType,
		tx.ReferenceID,
		tx.Description,
		tx.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

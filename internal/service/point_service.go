package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"bezero/internal/domain"
	"bezero/internal/events"
	"bezero/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// publishPointsEvent mirrors a committed ledger entry onto the event bus.
// Every service that writes to the ledger goes through it so EARN and
// SPEND always surface as events.
func publishPointsEvent(bus domain.EventPublisher, tx *models.PointTransaction) {
	if bus == nil || tx == nil {
		return
	}

	eventType := events.EventPointsEarned
	if tx.Type == models.PointSpend {
		eventType = events.EventPointsSpent
	}

	_ = bus.PublishJSON(eventType, events.PointsEventPayload{
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Type:          tx.Type,
		Amount:        tx.Amount,
		ReferenceType: tx.ReferenceType,
		ReferenceID:   tx.ReferenceID,
		BalanceAfter:  tx.BalanceAfter,
	})
}

type PointService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewPointService(repo domain.Repository, logger *zerolog.Logger) *PointService {
	return &PointService{repo: repo, logger: logger}
}

func (s *PointService) Balance(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

func (s *PointService) History(ctx context.Context, userID int64, limit, offset int) ([]*models.PointTransaction, error) {
	if limit <= 0 || limit > models.MaxPageSize {
		limit = models.DefaultPageSize
	}
	return s.repo.GetPointTransactions(ctx, userID, limit, offset)
}

// ExportLedger renders the full ledger as an xlsx workbook for managers.
func (s *PointService) ExportLedger(ctx context.Context) ([]byte, error) {
	txs, err := s.repo.GetAllPointTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting ledger: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Баллы"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Пользователь", "Тип", "Сумма", "Баланс до", "Баланс после", "Источник", "Ссылка", "Описание", "Дата"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "J1", headerStyle)

	for rowIdx, tx := range txs {
		row := rowIdx + 2
		values := []interface{}{
			tx.ID,
			tx.UserID,
			tx.Type,
			tx.Amount,
			tx.BalanceBefore,
			tx.BalanceAfter,
			tx.ReferenceType,
			tx.ReferenceID,
			tx.Description,
			tx.CreatedAt.Format("02.01.2006 15:04"),
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "J", 18)
	_ = f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing xlsx: %v", err)
	}
	return buf.Bytes(), nil
}

// ExportStays renders the stays schedule as xlsx: one row per stay in the
// requested period.
func (s *PointService) ExportStays(ctx context.Context, start, end time.Time) ([]byte, error) {
	stays, err := s.repo.GetStaysByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("error getting stays: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Проживания"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Пользователь", "Гостевой дом", "Комната", "Заезд", "Выезд", "Статус"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	for rowIdx, stay := range stays {
		row := rowIdx + 2
		houseName := fmt.Sprintf("%d", stay.GuestHouseID)
		if house, ok := s.repo.GetGuestHouse(stay.GuestHouseID); ok {
			houseName = house.Name
		}
		values := []interface{}{
			stay.ID,
			stay.UserID,
			houseName,
			stay.RoomID,
			stay.CheckIn.Format("02.01.2006"),
			stay.CheckOut.Format("02.01.2006"),
			stay.Status,
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "G", 18)
	_ = f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing xlsx: %v", err)
	}
	return buf.Bytes(), nil
}

package infrastructure

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mateusmacedo/go-seatbooking/internal/seating/domain"
	pkgApp "github.com/mateusmacedo/go-seatbooking/pkg/application"
)

type routeModel struct {
	ID          string          `gorm:"primaryKey;size:36"`
	Position    int             `gorm:"not null"`
	Source      string          `gorm:"size:255;not null"`
	Destination string          `gorm:"size:255;not null"`
	AdultFare   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	SeatRows    int             `gorm:"not null"`
	SeatColumns int             `gorm:"not null"`
	CreatedAt   time.Time
}

func (routeModel) TableName() string { return "routes" }

// bookingModel espelha a tabela de reservas: usuário, rótulo da rota, passageiro, assento e tarifa do bilhete.
type bookingModel struct {
	ID            uint64          `gorm:"primaryKey;autoIncrement:false"`
	AllocationID  string          `gorm:"size:36;index"`
	Username      string          `gorm:"size:255;index"`
	RouteID       string          `gorm:"size:36;index"`
	Route         string          `gorm:"size:255"`
	PassengerName string          `gorm:"size:255;index;not null"`
	SeatNumber    int             `gorm:"not null"`
	TicketFare    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt     time.Time
}

func (bookingModel) TableName() string { return "bookings" }

type GormSeatingStore struct {
	db     *gorm.DB
	logger pkgApp.AppLogger
}

// OpenGormSeatingStore conecta ao PostgreSQL e cria as tabelas se necessário.
func OpenGormSeatingStore(dsn string, logger pkgApp.AppLogger) (*GormSeatingStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		return nil, err
	}

	if err = db.AutoMigrate(&routeModel{}, &bookingModel{}); err != nil {
		return nil, err
	}

	return NewGormSeatingStore(db, logger), nil
}

func NewGormSeatingStore(db *gorm.DB, logger pkgApp.AppLogger) *GormSeatingStore {
	return &GormSeatingStore{db: db, logger: logger}
}

func (s *GormSeatingStore) SaveRoute(ctx context.Context, route domain.RouteRecord) error {
	model := routeModel{
		ID:          string(route.ID),
		Position:    route.Position,
		Source:      route.Source,
		Destination: route.Destination,
		AdultFare:   route.AdultFare,
		SeatRows:    route.Rows,
		SeatColumns: route.Columns,
	}

	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		pkgApp.LogError(ctx, s.logger, "failed to save route", err, map[string]interface{}{
			"route_id": route.ID,
		})
		return err
	}

	pkgApp.LogDebug(ctx, s.logger, "route saved", map[string]interface{}{
		"route_id": route.ID,
	})
	return nil
}

// SaveBookings grava o lote em uma única transação.
func (s *GormSeatingStore) SaveBookings(ctx context.Context, bookings []domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	models := make([]bookingModel, len(bookings))
	for i, b := range bookings {
		models[i] = bookingModel{
			ID:            uint64(b.ID),
			AllocationID:  b.AllocationID,
			Username:      string(b.User),
			RouteID:       string(b.RouteID),
			Route:         b.RouteLabel,
			PassengerName: b.PassengerName,
			SeatNumber:    b.SeatNumber,
			TicketFare:    b.Fare,
			CreatedAt:     b.CreatedAt,
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&models).Error
	})
	if err != nil {
		pkgApp.LogError(ctx, s.logger, "failed to save bookings", err, map[string]interface{}{
			"allocation_id": bookings[0].AllocationID,
			"count":         len(bookings),
		})
		return err
	}

	pkgApp.LogDebug(ctx, s.logger, "bookings saved", map[string]interface{}{
		"allocation_id": bookings[0].AllocationID,
		"count":         len(bookings),
	})
	return nil
}

func (s *GormSeatingStore) LoadRoutes(ctx context.Context) ([]domain.RouteRecord, error) {
	var models []routeModel
	if err := s.db.WithContext(ctx).Order("position").Find(&models).Error; err != nil {
		pkgApp.LogError(ctx, s.logger, "failed to load routes", err, nil)
		return nil, err
	}

	out := make([]domain.RouteRecord, len(models))
	for i, m := range models {
		out[i] = domain.RouteRecord{
			ID:          domain.RouteID(m.ID),
			Position:    m.Position,
			Source:      m.Source,
			Destination: m.Destination,
			AdultFare:   m.AdultFare,
			Rows:        m.SeatRows,
			Columns:     m.SeatColumns,
		}
	}
	return out, nil
}

// LastBookingID consulta o maior ID gravado; a tabela vazia devolve zero.
func (s *GormSeatingStore) LastBookingID(ctx context.Context) (domain.BookingID, error) {
	var last uint64
	err := s.db.WithContext(ctx).Model(&bookingModel{}).Select("COALESCE(MAX(id), 0)").Scan(&last).Error
	if err != nil {
		pkgApp.LogError(ctx, s.logger, "failed to read last booking id", err, nil)
		return 0, err
	}
	return domain.BookingID(last), nil
}

func (s *GormSeatingStore) LoadBookings(ctx context.Context) ([]domain.Booking, error) {
	var models []bookingModel
	if err := s.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		pkgApp.LogError(ctx, s.logger, "failed to load bookings", err, nil)
		return nil, err
	}

	out := make([]domain.Booking, len(models))
	for i, m := range models {
		out[i] = domain.Booking{
			ID:            domain.BookingID(m.ID),
			AllocationID:  m.AllocationID,
			User:          domain.UserRef(m.Username),
			RouteID:       domain.RouteID(m.RouteID),
			RouteLabel:    m.Route,
			PassengerName: m.PassengerName,
			SeatNumber:    m.SeatNumber,
			Fare:          m.TicketFare,
			CreatedAt:     m.CreatedAt,
		}
	}
	return out, nil
}

func (s *GormSeatingStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

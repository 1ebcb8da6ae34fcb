package order

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

// Status is the primary fulfillment stage of an order line.
// Values are the labels persisted in the store document.
type Status string

const (
	StatusNew          Status = "Yeni"
	StatusOpsApproval  Status = "Operasyon Onayı"
	StatusInProduction Status = "Üretimde"
	StatusCertificate  Status = "Sertifika"
	StatusPrinted      Status = "Yazdırıldı"
	StatusCompleted    Status = "Tamamlandı"
	StatusReturned     Status = "İade/Hatalı"
)

// AllStatuses returns every primary status in workflow order
func AllStatuses() []Status {
	return []Status{
		StatusNew,
		StatusOpsApproval,
		StatusInProduction,
		StatusCertificate,
		StatusPrinted,
		StatusCompleted,
		StatusReturned,
	}
}

// IsValid returns true if the status is one of the enumerated values
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusOpsApproval, StatusInProduction, StatusCertificate,
		StatusPrinted, StatusCompleted, StatusReturned:
		return true
	}
	return false
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// ParseStatus validates a raw status label
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// ---------------------------------------------------------------------------
// ProductionStatus
// ---------------------------------------------------------------------------

// ProductionStatus is the manufacturing stage, meaningful only while the
// primary status is StatusInProduction.
type ProductionStatus string

const (
	ProductionToBeCast ProductionStatus = "Döküme Gönderilecek"
	ProductionCasting  ProductionStatus = "Dökümde"
	ProductionWorkshop ProductionStatus = "Atölye"
	ProductionDone     ProductionStatus = "Tamamlandı"
)

// AllProductionStatuses returns every production sub-status in order
func AllProductionStatuses() []ProductionStatus {
	return []ProductionStatus{
		ProductionToBeCast,
		ProductionCasting,
		ProductionWorkshop,
		ProductionDone,
	}
}

// IsValid returns true if the production status is one of the enumerated values
func (p ProductionStatus) IsValid() bool {
	switch p {
	case ProductionToBeCast, ProductionCasting, ProductionWorkshop, ProductionDone:
		return true
	}
	return false
}

// String returns the string representation
func (p ProductionStatus) String() string {
	return string(p)
}

// ParseProductionStatus validates a raw production status label
func ParseProductionStatus(raw string) (ProductionStatus, error) {
	p := ProductionStatus(raw)
	if !p.IsValid() {
		return "", ErrInvalidProductionStatus
	}
	return p, nil
}

// ---------------------------------------------------------------------------
// Platform
// ---------------------------------------------------------------------------

// Platform identifies the marketplace a line came from
type Platform string

const (
	PlatformTrendyol Platform = "Trendyol"
	PlatformIkas     Platform = "Ikas"
)

// IsValid returns true if the platform is known
func (p Platform) IsValid() bool {
	return p == PlatformTrendyol || p == PlatformIkas
}

package wb

// SaleRow is one line of the weekly realization report
// (/api/v5/supplier/reportDetailByPeriod). Field names mirror the API
// payload and must not be renamed.
type SaleRow struct {
	RealizationreportID int64   `json:"realizationreport_id"`
	RrdID               int64   `json:"rrd_id"`
	NmID                int64   `json:"nm_id"`
	SaName              string  `json:"sa_name"`
	DocTypeName         string  `json:"doc_type_name"`
	SupplierOperName    string  `json:"supplier_oper_name"`
	Quantity            int     `json:"quantity"`
	RetailAmount        float64 `json:"retail_amount"`
	PpvzForPay          float64 `json:"ppvz_for_pay"`
	DeliveryAmount      int     `json:"delivery_amount"`
	DeliveryRub         float64 `json:"delivery_rub"`
	Penalty             float64 `json:"penalty"`
	AdditionalPayment   float64 `json:"additional_payment"`
	Deduction           float64 `json:"deduction"`
	BonusTypeName       string  `json:"bonus_type_name"`
}

// Card is one product card from /content/v2/get/cards/list.
type Card struct {
	NmID       int64  `json:"nmID"`
	VendorCode string `json:"vendorCode"`
	Title      string `json:"title"`
}

type CardsCursor struct {
	Limit     int    `json:"limit"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	NmID      int64  `json:"nmID,omitempty"`
}

type CardsPage struct {
	Cards  []Card `json:"cards"`
	Cursor struct {
		UpdatedAt string `json:"updatedAt"`
		NmID      int64  `json:"nmID"`
		Total     int    `json:"total"`
	} `json:"cursor"`
}

// StorageRow is one line of the paid-storage report download.
type StorageRow struct {
	NmID           int64   `json:"nmId"`
	VendorCode     string  `json:"vendorCode"`
	WarehousePrice float64 `json:"warehousePrice"`
}

// AcceptanceRow is one line of the paid-acceptance report download.
type AcceptanceRow struct {
	NmID  int64   `json:"nmID"`
	Total float64 `json:"total"`
}

// UPDDocument is one advertising billing document from /adv/v1/upd.
type UPDDocument struct {
	UpdNum   int64   `json:"updNum"`
	UpdTime  string  `json:"updTime"`
	UpdSum   float64 `json:"updSum"`
	AdvertID int64   `json:"advertId"`
	CampName string  `json:"campName"`
}

// CampaignStats is one campaign's breakdown from /adv/v2/fullstats.
type CampaignStats struct {
	AdvertID int64 `json:"advertId"`
	Days     []struct {
		Date string `json:"date"`
		Apps []struct {
			Nm []CampaignProduct `json:"nm"`
		} `json:"apps"`
	} `json:"days"`
}

type CampaignProduct struct {
	NmID int64   `json:"nmId"`
	Name string  `json:"name"`
	Sum  float64 `json:"sum"`
}

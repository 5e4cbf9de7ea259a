package inventory

// Product is the canonical record built from one spreadsheet row. Source
// fields stay raw; calculations coerce them at the point of use.
type Product struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	SKU          string       `json:"sku"`
	Category     string       `json:"category"`
	SalesHistory []SalesPoint `json:"salesHistory"`

	// Identity
	Brand       Value `json:"brand,omitzero"`
	Product     Value `json:"product,omitzero"`
	Variant     Value `json:"variant,omitzero"`
	ProductName Value `json:"productName,omitzero"`
	ASINs       Value `json:"asins,omitzero"`
	GS1Code     Value `json:"gs1Code,omitzero"`
	FSN         Value `json:"fsn,omitzero"`
	VendorAMZ   Value `json:"vendorAMZ,omitzero"`
	Column1     Value `json:"column1,omitzero"`
	LaunchType  Value `json:"launchType,omitzero"`
	Vendor2     Value `json:"vendor2,omitzero"`

	// Channel sales and demand
	FBASales        Value `json:"fbaSales,omitzero"`
	RKRZSale        Value `json:"rkrzSale,omitzero"`
	AmazonSale      Value `json:"amazonSale,omitzero"`
	AmazonASD       Value `json:"amazonASD,omitzero"`
	AmazonGrowth    Value `json:"amazonGrowth,omitzero"`
	MaxDRR          Value `json:"maxDRR,omitzero"`
	AmazonPASD      Value `json:"amazonPASD,omitzero"`
	Diff            Value `json:"diff,omitzero"`
	AmazonDemand    Value `json:"amazonDemand,omitzero"`
	FKAlphaSales    Value `json:"fkAlphaSales,omitzero"`
	FKSales         Value `json:"fkSales,omitzero"`
	FKSalesTotal    Value `json:"fkSalesTotal,omitzero"`
	FKASD           Value `json:"fkASD,omitzero"`
	FKGrowth        Value `json:"fkGrowth,omitzero"`
	MaxDRR2         Value `json:"maxDRR2,omitzero"`
	FKPASD          Value `json:"fkPASD,omitzero"`
	FKDemand        Value `json:"fkDemand,omitzero"`
	OtherMPSales    Value `json:"otherMPSales,omitzero"`
	QCPASD          Value `json:"qcPASD,omitzero"`
	QCommerceDemand Value `json:"qcommerceDemand,omitzero"`
	MPDemand        Value `json:"mpDemand,omitzero"`

	// Inventory
	WH              Value `json:"wh,omitzero"`
	FBA             Value `json:"fba,omitzero"`
	AmazonInventory Value `json:"amazonInventory,omitzero"`
	FKAlphaInv      Value `json:"fkAlphaInv,omitzero"`
	FBFInv          Value `json:"fbfInv,omitzero"`
	FKInv           Value `json:"fkInv,omitzero"`
	Transit         Value `json:"transit,omitzero"`

	// Planning
	CTTargetInventory Value `json:"ctTargetInventory,omitzero"`
	LeadTime          Value `json:"leadTime,omitzero"`
	OrderFreq         Value `json:"orderFreq,omitzero"`
	PASD              Value `json:"pasd,omitzero"`
	ToOrder           Value `json:"toOrder,omitzero"`
	FinalOrder        Value `json:"finalOrder,omitzero"`
	Remark            Value `json:"remark,omitzero"`
	DaysInvInHand     Value `json:"daysInvInHand,omitzero"`
	DaysInvTotal      Value `json:"daysInvTotal,omitzero"`

	// Pack relation as stated by the sheet, when it has such columns
	ParentSKU    Value `json:"parentSku,omitzero"`
	UnitsPerPack Value `json:"unitsPerPack,omitzero"`

	// Derived at normalization; nil when the source column is absent.
	DRR    *float64 `json:"drr,omitempty"`
	DOC    *float64 `json:"doc,omitempty"`
	Target *float64 `json:"target,omitempty"`

	// Set by the Reconciler.
	IsBaseUnit            bool     `json:"isBaseUnit"`
	PackSize              int      `json:"packSize"`
	BundledSKUs           []string `json:"bundledSKUs"`
	FinalToOrderBaseUnits float64  `json:"finalToOrderBaseUnits"`
	IsOverstock           bool     `json:"isOverstock"`
}

// SalesPoint is one entry of a product's sales history.
type SalesPoint struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// Clone returns a copy of p that shares no slices with it.
func (p Product) Clone() Product {
	c := p
	c.SalesHistory = append(make([]SalesPoint, 0, len(p.SalesHistory)), p.SalesHistory...)
	if p.BundledSKUs != nil {
		c.BundledSKUs = append(make([]string, 0, len(p.BundledSKUs)), p.BundledSKUs...)
	}
	c.DRR = clonePtr(p.DRR)
	c.DOC = clonePtr(p.DOC)
	c.Target = clonePtr(p.Target)
	return c
}

// CloneProducts deep-copies a product slice.
func CloneProducts(products []Product) []Product {
	out := make([]Product, len(products))
	for i := range products {
		out[i] = products[i].Clone()
	}
	return out
}

func clonePtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

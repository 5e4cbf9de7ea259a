package inventory

// fieldSpec binds a canonical field name and its header aliases to the
// Product field it fills.
type fieldSpec struct {
	name    string
	aliases []string
	dst     func(p *Product) *Value
}

// productFields lists every column the normalizer looks for. Aliases are the
// header spellings seen in marketplace exports.
var productFields = []fieldSpec{
	{"brand", nil, func(p *Product) *Value { return &p.Brand }},
	{"product", nil, func(p *Product) *Value { return &p.Product }},
	{"variant", nil, func(p *Product) *Value { return &p.Variant }},
	{"productName", []string{"product name", "name"}, func(p *Product) *Value { return &p.ProductName }},
	{"asins", nil, func(p *Product) *Value { return &p.ASINs }},
	{"gs1Code", []string{"gs1 code"}, func(p *Product) *Value { return &p.GS1Code }},
	{"fsn", nil, func(p *Product) *Value { return &p.FSN }},
	{"vendorAMZ", []string{"vendor amz"}, func(p *Product) *Value { return &p.VendorAMZ }},
	{"column1", nil, func(p *Product) *Value { return &p.Column1 }},
	{"launchType", []string{"launch type"}, func(p *Product) *Value { return &p.LaunchType }},
	{"vendor2", nil, func(p *Product) *Value { return &p.Vendor2 }},
	{"fbaSales", []string{"fba sales"}, func(p *Product) *Value { return &p.FBASales }},
	{"rkrzSale", []string{"rk/rz sale"}, func(p *Product) *Value { return &p.RKRZSale }},
	{"amazonSale", []string{"amazon sale"}, func(p *Product) *Value { return &p.AmazonSale }},
	{"amazonASD", []string{"amazon asd"}, func(p *Product) *Value { return &p.AmazonASD }},
	{"amazonGrowth", []string{"amazon growth"}, func(p *Product) *Value { return &p.AmazonGrowth }},
	{"maxDRR", []string{"max drr"}, func(p *Product) *Value { return &p.MaxDRR }},
	{"amazonPASD", []string{"amazon pasd"}, func(p *Product) *Value { return &p.AmazonPASD }},
	{"diff", nil, func(p *Product) *Value { return &p.Diff }},
	{"ctTargetInventory", []string{"ct target inventory"}, func(p *Product) *Value { return &p.CTTargetInventory }},
	{"amazonInventory", []string{"amazon inventory"}, func(p *Product) *Value { return &p.AmazonInventory }},
	{"fba", nil, func(p *Product) *Value { return &p.FBA }},
	{"amazonDemand", []string{"amazon demand"}, func(p *Product) *Value { return &p.AmazonDemand }},
	{"fkAlphaSales", []string{"fk alpha sales"}, func(p *Product) *Value { return &p.FKAlphaSales }},
	{"fkAlphaInv", []string{"fk alpha inv"}, func(p *Product) *Value { return &p.FKAlphaInv }},
	{"fkSales", []string{"fk sales"}, func(p *Product) *Value { return &p.FKSales }},
	{"fbfInv", []string{"fbf inv"}, func(p *Product) *Value { return &p.FBFInv }},
	{"fkSalesTotal", []string{"fk sales total"}, func(p *Product) *Value { return &p.FKSalesTotal }},
	{"fkInv", []string{"fk inv"}, func(p *Product) *Value { return &p.FKInv }},
	{"fkASD", []string{"fk asd"}, func(p *Product) *Value { return &p.FKASD }},
	{"fkGrowth", []string{"fk growth"}, func(p *Product) *Value { return &p.FKGrowth }},
	{"maxDRR2", []string{"max drr2"}, func(p *Product) *Value { return &p.MaxDRR2 }},
	{"fkPASD", []string{"fk pasd"}, func(p *Product) *Value { return &p.FKPASD }},
	{"fkDemand", []string{"fk demand"}, func(p *Product) *Value { return &p.FKDemand }},
	{"otherMPSales", []string{"other mp sales"}, func(p *Product) *Value { return &p.OtherMPSales }},
	{"qcPASD", []string{"qc pasd"}, func(p *Product) *Value { return &p.QCPASD }},
	{"qcommerceDemand", []string{"qcommerce demand"}, func(p *Product) *Value { return &p.QCommerceDemand }},
	{"wh", nil, func(p *Product) *Value { return &p.WH }},
	{"orderFreq", []string{"order frequ"}, func(p *Product) *Value { return &p.OrderFreq }},
	{"pasd", nil, func(p *Product) *Value { return &p.PASD }},
	{"mpDemand", []string{"mp demand"}, func(p *Product) *Value { return &p.MPDemand }},
	{"transit", nil, func(p *Product) *Value { return &p.Transit }},
	{"toOrder", []string{"to order"}, func(p *Product) *Value { return &p.ToOrder }},
	{"finalOrder", []string{"final order"}, func(p *Product) *Value { return &p.FinalOrder }},
	{"remark", nil, func(p *Product) *Value { return &p.Remark }},
	{"daysInvInHand", []string{"no.of days inv inhand"}, func(p *Product) *Value { return &p.DaysInvInHand }},
	{"daysInvTotal", []string{"no.of days inv total"}, func(p *Product) *Value { return &p.DaysInvTotal }},
	{"parentSku", []string{"base sku", "parent sku", "base unit sku"}, func(p *Product) *Value { return &p.ParentSKU }},
	{"unitsPerPack", []string{"pack size", "pack qty", "units per pack"}, func(p *Product) *Value { return &p.UnitsPerPack }},
}

var (
	skuAliases      = []string{"skuid", "productid"}
	categoryAliases = []string{"productcategory"}
	leadTimeAliases = []string{"Lead Time"}
)

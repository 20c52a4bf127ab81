package stockimport

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseError reports a structurally invalid invoice document. Parsing is
// all-or-nothing: a ParseError means no preview was produced.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "stockimport: invalid invoice: " + e.Reason
}

func parseErrorf(format string, args ...any) error {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

// PreviewItem is one invoice line staged for import. All fields stay
// editable until Commit.
type PreviewItem struct {
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// InvoiceMeta carries the document-level fields of a parsed invoice.
type InvoiceMeta struct {
	SupplierName  string          `json:"supplier_name"`
	SupplierCNPJ  string          `json:"supplier_cnpj"`
	XMLKey        string          `json:"xml_key"`
	DeclaredTotal decimal.Decimal `json:"declared_total"`
}

// Preview is the full result of parsing an invoice.
type Preview struct {
	Meta  InvoiceMeta   `json:"meta"`
	Items []PreviewItem `json:"items"`
}

// ItemsValue sums quantity times unit cost over the staged lines.
func (p Preview) ItemsValue() decimal.Decimal {
	total := decimal.Zero
	for _, it := range p.Items {
		total = total.Add(it.Quantity.Mul(it.UnitCost))
	}
	return total
}

// xml mapping for the NFe document subset the import consumes.
type xmlInvoice struct {
	InfNFe *xmlInfNFe `xml:"infNFe"`
	NFe    *struct {
		InfNFe *xmlInfNFe `xml:"infNFe"`
	} `xml:"NFe"`
}

type xmlInfNFe struct {
	ID   string `xml:"Id,attr"`
	Emit struct {
		CNPJ  string `xml:"CNPJ"`
		XNome string `xml:"xNome"`
	} `xml:"emit"`
	Det []struct {
		Prod struct {
			CProd  string `xml:"cProd"`
			XProd  string `xml:"xProd"`
			UCom   string `xml:"uCom"`
			QCom   string `xml:"qCom"`
			VUnCom string `xml:"vUnCom"`
		} `xml:"prod"`
	} `xml:"det"`
	Total struct {
		ICMSTot struct {
			VNF string `xml:"vNF"`
		} `xml:"ICMSTot"`
	} `xml:"total"`
}

// ParseInvoice reads an NFe-like XML document and stages its lines for
// import. Selling prices default to unit cost marked up by marginPercent,
// rounded to two decimals.
func ParseInvoice(raw []byte, marginPercent decimal.Decimal) (Preview, error) {
	var doc xmlInvoice
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return Preview{}, parseErrorf("xml: %v", err)
	}

	// accept both the signed wrapper (nfeProc>NFe>infNFe) and a bare NFe root
	inf := doc.InfNFe
	if inf == nil && doc.NFe != nil {
		inf = doc.NFe.InfNFe
	}
	if inf == nil {
		return Preview{}, parseErrorf("missing infNFe block")
	}
	if inf.Emit.XNome == "" || inf.Emit.CNPJ == "" {
		return Preview{}, parseErrorf("missing emitter name or CNPJ")
	}
	if len(inf.Det) == 0 {
		return Preview{}, parseErrorf("invoice has no det blocks")
	}

	key := strings.TrimPrefix(inf.ID, "NFe")
	if key == "" {
		return Preview{}, parseErrorf("missing document key")
	}

	declared, err := parseAmount(inf.Total.ICMSTot.VNF, "vNF")
	if err != nil {
		return Preview{}, err
	}

	items := make([]PreviewItem, 0, len(inf.Det))
	for i, det := range inf.Det {
		if det.Prod.CProd == "" || det.Prod.XProd == "" {
			return Preview{}, parseErrorf("det %d: missing cProd or xProd", i+1)
		}
		qty, err := parseAmount(det.Prod.QCom, fmt.Sprintf("det %d qCom", i+1))
		if err != nil {
			return Preview{}, err
		}
		if !qty.IsPositive() {
			return Preview{}, parseErrorf("det %d: quantity must be positive", i+1)
		}
		cost, err := parseAmount(det.Prod.VUnCom, fmt.Sprintf("det %d vUnCom", i+1))
		if err != nil {
			return Preview{}, err
		}
		if cost.IsNegative() {
			return Preview{}, parseErrorf("det %d: unit cost must not be negative", i+1)
		}
		items = append(items, PreviewItem{
			SKU:          det.Prod.CProd,
			Name:         det.Prod.XProd,
			Unit:         det.Prod.UCom,
			Quantity:     qty,
			UnitCost:     cost,
			SellingPrice: SellingFromMargin(cost, marginPercent),
		})
	}

	return Preview{
		Meta: InvoiceMeta{
			SupplierName:  inf.Emit.XNome,
			SupplierCNPJ:  inf.Emit.CNPJ,
			XMLKey:        key,
			DeclaredTotal: declared,
		},
		Items: items,
	}, nil
}

// SellingFromMargin marks cost up by a percentage, rounded to cents.
func SellingFromMargin(cost, marginPercent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(marginPercent.Div(decimal.NewFromInt(100)))
	return cost.Mul(factor).Round(2)
}

func parseAmount(raw, field string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, parseErrorf("%s: %q is not a number", field, raw)
	}
	return v, nil
}

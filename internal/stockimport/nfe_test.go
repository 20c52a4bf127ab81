package stockimport

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const sampleInvoice = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe" versao="4.00">
  <NFe>
    <infNFe Id="NFe35260812345678000190550010000001231000001234" versao="4.00">
      <emit>
        <CNPJ>12345678000190</CNPJ>
        <xNome>Auto Pecas Silva LTDA</xNome>
      </emit>
      <det nItem="1">
        <prod>
          <cProd>FLT-001</cProd>
          <xProd>Filtro de oleo</xProd>
          <uCom>UN</uCom>
          <qCom>4.0000</qCom>
          <vUnCom>10.0000</vUnCom>
        </prod>
      </det>
      <det nItem="2">
        <prod>
          <cProd>PAS-010</cProd>
          <xProd>Pastilha de freio</xProd>
          <uCom>JG</uCom>
          <qCom>2.0000</qCom>
          <vUnCom>55.5000</vUnCom>
        </prod>
      </det>
      <total>
        <ICMSTot>
          <vNF>151.00</vNF>
        </ICMSTot>
      </total>
    </infNFe>
  </NFe>
</nfeProc>`

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseInvoice(t *testing.T) {
	preview, err := ParseInvoice([]byte(sampleInvoice), dec("30"))
	require.NoError(t, err)

	require.Equal(t, "Auto Pecas Silva LTDA", preview.Meta.SupplierName)
	require.Equal(t, "12345678000190", preview.Meta.SupplierCNPJ)
	require.Equal(t, "35260812345678000190550010000001231000001234", preview.Meta.XMLKey)
	require.True(t, preview.Meta.DeclaredTotal.Equal(dec("151.00")))

	require.Len(t, preview.Items, 2)
	first := preview.Items[0]
	require.Equal(t, "FLT-001", first.SKU)
	require.Equal(t, "Filtro de oleo", first.Name)
	require.Equal(t, "UN", first.Unit)
	require.True(t, first.Quantity.Equal(dec("4")))
	require.True(t, first.UnitCost.Equal(dec("10")))
	require.True(t, first.SellingPrice.Equal(dec("13.00")), "margin 30 over 10.00 must price at 13.00")

	second := preview.Items[1]
	require.True(t, second.SellingPrice.Equal(dec("72.15")), "got %s", second.SellingPrice)

	require.True(t, preview.ItemsValue().Equal(dec("151.00")))
}

func TestParseInvoiceBareNFeRoot(t *testing.T) {
	bare := `<NFe><infNFe Id="NFe123"><emit><CNPJ>1</CNPJ><xNome>F</xNome></emit><det><prod><cProd>A</cProd><xProd>B</xProd><uCom>UN</uCom><qCom>1</qCom><vUnCom>2</vUnCom></prod></det><total><ICMSTot><vNF>2.00</vNF></ICMSTot></total></infNFe></NFe>`
	preview, err := ParseInvoice([]byte(bare), dec("0"))
	require.NoError(t, err)
	require.Equal(t, "123", preview.Meta.XMLKey)
	require.True(t, preview.Items[0].SellingPrice.Equal(dec("2.00")))
}

func TestParseInvoiceRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not xml":       `{"sku": "x"}`,
		"no infNFe":     `<nfeProc><NFe></NFe></nfeProc>`,
		"no emitter":    `<NFe><infNFe Id="NFe1"><det><prod><cProd>A</cProd><xProd>B</xProd><qCom>1</qCom><vUnCom>1</vUnCom></prod></det><total><ICMSTot><vNF>1</vNF></ICMSTot></total></infNFe></NFe>`,
		"no items":      `<NFe><infNFe Id="NFe1"><emit><CNPJ>1</CNPJ><xNome>F</xNome></emit><total><ICMSTot><vNF>1</vNF></ICMSTot></total></infNFe></NFe>`,
		"no key":        `<NFe><infNFe><emit><CNPJ>1</CNPJ><xNome>F</xNome></emit><det><prod><cProd>A</cProd><xProd>B</xProd><qCom>1</qCom><vUnCom>1</vUnCom></prod></det><total><ICMSTot><vNF>1</vNF></ICMSTot></total></infNFe></NFe>`,
		"bad quantity":  `<NFe><infNFe Id="NFe1"><emit><CNPJ>1</CNPJ><xNome>F</xNome></emit><det><prod><cProd>A</cProd><xProd>B</xProd><qCom>abc</qCom><vUnCom>1</vUnCom></prod></det><total><ICMSTot><vNF>1</vNF></ICMSTot></total></infNFe></NFe>`,
		"zero quantity": `<NFe><infNFe Id="NFe1"><emit><CNPJ>1</CNPJ><xNome>F</xNome></emit><det><prod><cProd>A</cProd><xProd>B</xProd><qCom>0</qCom><vUnCom>1</vUnCom></prod></det><total><ICMSTot><vNF>1</vNF></ICMSTot></total></infNFe></NFe>`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseInvoice([]byte(raw), dec("30"))
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestSellingFromMargin(t *testing.T) {
	require.True(t, SellingFromMargin(dec("10.00"), dec("30")).Equal(dec("13.00")))
	require.True(t, SellingFromMargin(dec("9.99"), dec("0")).Equal(dec("9.99")))
	require.True(t, SellingFromMargin(dec("33.33"), dec("50")).Equal(dec("50.00")), "rounds to cents")
}

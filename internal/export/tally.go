// Package export renders validated voucher sets into the Tally import
// document format.
package export

import (
	"encoding/xml"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyprep/tallyprep/internal/voucher"
)

// ErrNonExportable means the requested set contains a voucher that is not
// VALID. The whole call is refused; nothing is silently skipped.
var ErrNonExportable = errors.New("export: voucher set contains non-valid vouchers")

const tallyDateLayout = "20060102"

type envelope struct {
	XMLName xml.Name `xml:"ENVELOPE"`
	Header  header   `xml:"HEADER"`
	Body    body     `xml:"BODY"`
}

type header struct {
	TallyRequest string `xml:"TALLYREQUEST"`
}

type body struct {
	ImportData importData `xml:"IMPORTDATA"`
}

type importData struct {
	RequestDesc requestDesc `xml:"REQUESTDESC"`
	RequestData requestData `xml:"REQUESTDATA"`
}

type requestDesc struct {
	ReportName      string          `xml:"REPORTNAME"`
	StaticVariables staticVariables `xml:"STATICVARIABLES"`
}

type staticVariables struct {
	CurrentCompany string `xml:"SVCURRENTCOMPANY"`
}

type requestData struct {
	Messages []tallyMessage `xml:"TALLYMESSAGE"`
}

type tallyMessage struct {
	Voucher voucherNode `xml:"VOUCHER"`
}

type voucherNode struct {
	VchType     string      `xml:"VCHTYPE,attr"`
	Action      string      `xml:"ACTION,attr"`
	Date        string      `xml:"DATE"`
	TypeName    string      `xml:"VOUCHERTYPENAME"`
	Number      string      `xml:"VOUCHERNUMBER"`
	PartyLedger string      `xml:"PARTYLEDGERNAME,omitempty"`
	Narration   string      `xml:"NARRATION,omitempty"`
	Entries     []entryNode `xml:"ALLLEDGERENTRIES.LIST"`
}

type entryNode struct {
	LedgerName       string `xml:"LEDGERNAME"`
	IsDeemedPositive string `xml:"ISDEEMEDPOSITIVE"`
	Amount           string `xml:"AMOUNT"`
}

var voucherTypeNames = map[voucher.Kind]string{
	voucher.KindSales:    "Sales",
	voucher.KindPurchase: "Purchase",
	voucher.KindPayroll:  "Payment",
	voucher.KindJournal:  "Journal",
}

// Serializer renders voucher sets into Tally's import envelope.
type Serializer struct {
	company string
}

// NewSerializer returns a serializer stamping documents for the company.
func NewSerializer(company string) *Serializer {
	return &Serializer{company: company}
}

// Serialize emits the import document for the set. Every voucher must be
// VALID. Output is deterministic: stable element order and fixed two-decimal
// amounts, so identical input yields byte-identical documents.
func (s *Serializer) Serialize(vouchers []*voucher.Voucher) ([]byte, error) {
	for _, v := range vouchers {
		if v.Status != voucher.StatusValid {
			return nil, fmt.Errorf("%w: %s is %s", ErrNonExportable, v.Code, v.Status)
		}
	}

	env := envelope{
		Header: header{TallyRequest: "Import Data"},
		Body: body{ImportData: importData{
			RequestDesc: requestDesc{
				ReportName:      "Vouchers",
				StaticVariables: staticVariables{CurrentCompany: s.company},
			},
		}},
	}
	for _, v := range vouchers {
		env.Body.ImportData.RequestData.Messages = append(env.Body.ImportData.RequestData.Messages, tallyMessage{
			Voucher: voucherNode{
				VchType:     voucherTypeNames[v.Kind],
				Action:      "Create",
				Date:        v.Date.Format(tallyDateLayout),
				TypeName:    voucherTypeNames[v.Kind],
				Number:      v.Code,
				PartyLedger: v.Party,
				Narration:   v.Narration,
				Entries:     entryNodes(v.Lines),
			},
		})
	}

	out, err := xml.MarshalIndent(env, "", " ")
	if err != nil {
		return nil, fmt.Errorf("export: marshal: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// Tally's sign convention: debits are "deemed positive" and carry a negative
// amount; credits carry a positive amount.
func entryNodes(lines []voucher.LedgerLine) []entryNode {
	nodes := make([]entryNode, 0, len(lines))
	for _, l := range lines {
		node := entryNode{LedgerName: l.Ledger}
		if l.Side == voucher.SideDebit {
			node.IsDeemedPositive = "Yes"
			node.Amount = l.Amount.Neg().StringFixed(2)
		} else {
			node.IsDeemedPositive = "No"
			node.Amount = l.Amount.StringFixed(2)
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// ParsedVoucher is a voucher recovered from an import document.
type ParsedVoucher struct {
	Code      string
	TypeName  string
	Date      time.Time
	Party     string
	Narration string
	Lines     []voucher.LedgerLine
}

// Parse reads an import document back into ledger lines, inverting the sign
// convention applied by Serialize.
func Parse(data []byte) ([]ParsedVoucher, error) {
	var env envelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("export: parse: %w", err)
	}

	out := make([]ParsedVoucher, 0, len(env.Body.ImportData.RequestData.Messages))
	for _, msg := range env.Body.ImportData.RequestData.Messages {
		node := msg.Voucher
		date, err := time.Parse(tallyDateLayout, node.Date)
		if err != nil {
			return nil, fmt.Errorf("export: parse voucher %s: %w", node.Number, err)
		}
		pv := ParsedVoucher{
			Code:      node.Number,
			TypeName:  node.TypeName,
			Date:      date,
			Party:     node.PartyLedger,
			Narration: node.Narration,
		}
		for _, e := range node.Entries {
			amount, err := decimal.NewFromString(e.Amount)
			if err != nil {
				return nil, fmt.Errorf("export: parse amount %q in %s: %w", e.Amount, node.Number, err)
			}
			line := voucher.LedgerLine{Ledger: e.LedgerName}
			if e.IsDeemedPositive == "Yes" {
				line.Side = voucher.SideDebit
				line.Amount = amount.Neg()
			} else {
				line.Side = voucher.SideCredit
				line.Amount = amount
			}
			pv.Lines = append(pv.Lines, line)
		}
		out = append(out, pv)
	}
	return out, nil
}

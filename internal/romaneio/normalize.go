package romaneio

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/romaneio-erp/romaneio/internal/shared"
)

// maxDueScanDepth bounds the recursive due-date key scan.
const maxDueScanDepth = 5

var dueKeyPattern = regexp.MustCompile(`(?i)due|venc`)

// Key synonyms accumulated over the backend's schema revisions. Lookups are
// case-insensitive and the first non-empty value wins.
var (
	idKeys          = []string{"id"}
	numberKeys      = []string{"number", "numero", "romaneio_number", "numero_romaneio", "sequence"}
	statusKeys      = []string{"status"}
	kindKeys        = []string{"kind", "type", "tipo", "tipo_operacao", "operation_type"}
	natureKeys      = []string{"nature_of_operation", "natureofoperation", "natureza_operacao", "natureza_da_operacao", "natureza"}
	emissionKeys    = []string{"emission_date", "data_emissao", "issue_date", "emissao", "date", "data"}
	saleKeys        = []string{"sale_date", "data_venda", "data_da_venda"}
	createdKeys     = []string{"created_at", "createdat", "data_criacao"}
	dueKeys         = []string{"due_date", "duedate", "data_vencimento", "vencimento", "payment_due_date", "due"}
	productKeys     = []string{"products", "items"}
	expenseKeys     = []string{"expenses", "romaneio_expenses"}
	companyKeys     = []string{"company_id", "empresa_id"}
	customerIDKeys  = []string{"customer_id", "cliente_id"}
	producerIDKeys  = []string{"producer_id", "produtor_id"}
	storedTotalKeys = []string{"total_value", "valor_total", "montante_total", "total_amount", "total"}

	quantityKeys     = []string{"quantity", "qty", "quantidade", "qtd"}
	unitValueKeys    = []string{"unit_value", "unitvalue", "unit_price", "unitprice", "valor_unitario", "price", "preco"}
	descriptionKeys  = []string{"description", "descricao", "name", "nome", "product", "produto"}
	expenseTotalKeys = []string{"total", "total_value", "valor_total", "value"}
	partyNameKeys    = []string{"name", "nome", "razao_social", "company_name"}
)

// NormalizeOptions tunes row decoding.
type NormalizeOptions struct {
	// Location resolves timestamps to calendar days. Defaults to time.Local.
	Location *time.Location
}

// Normalize decodes one backend row into an Invoice. Missing optional fields
// are defaulted; a row without an id yields shared.ErrUnusableRow.
func Normalize(row map[string]any, opts NormalizeOptions) (Invoice, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	r := foldKeys(row)
	payload := foldKeys(asObject(r.get("payload")))

	id := scalarString(r.first(idKeys...))
	if id == "" {
		return Invoice{}, shared.ErrUnusableRow
	}

	inv := Invoice{
		ID:                id,
		Number:            scalarString(r.first(numberKeys...)),
		Status:            parseStatus(scalarString(r.first(statusKeys...))),
		NatureOfOperation: scalarString(r.first(natureKeys...)),
		EmissionDate:      shared.ToISODate(r.first(emissionKeys...), loc),
		SaleDate:          shared.ToISODate(r.first(saleKeys...), loc),
		CreatedDate:       shared.ToISODate(r.first(createdKeys...), loc),
		CompanyID:         scalarString(r.first(companyKeys...)),
		CustomerID:        scalarString(r.first(customerIDKeys...)),
		ProducerID:        scalarString(r.first(producerIDKeys...)),
	}
	if inv.Number == "" {
		inv.Number = inv.ID
	}
	if inv.NatureOfOperation == "" {
		inv.NatureOfOperation = scalarString(payload.first(natureKeys...))
	}
	inv.Kind = inferKind(scalarString(r.first(kindKeys...)), inv.NatureOfOperation)
	inv.DueDate = resolveDueDate(r, payload, row, loc)

	inv.Client = partyName(r.first("client"))
	inv.Customer = partyName(r.first("customer"))
	if inv.Client == "" {
		inv.Client = inv.Customer
	}
	if inv.Customer == "" {
		inv.Customer = inv.Client
	}

	for _, item := range firstList(r, productKeys...) {
		line := foldKeys(item)
		inv.Products = append(inv.Products, ProductLine{
			Description: scalarString(line.first(descriptionKeys...)),
			Quantity:    shared.AmountOrZero(line.first(quantityKeys...)),
			UnitValue:   shared.AmountOrZero(line.first(unitValueKeys...)),
		})
	}
	for _, item := range firstList(r, expenseKeys...) {
		line := foldKeys(item)
		expense := ExpenseLine{
			Description: scalarString(line.first(descriptionKeys...)),
			Quantity:    shared.AmountOrZero(line.first(quantityKeys...)),
			UnitValue:   shared.AmountOrZero(line.first(unitValueKeys...)),
		}
		if total, ok := firstAmount(line, expenseTotalKeys...); ok {
			expense.Total = &total
		}
		inv.Expenses = append(inv.Expenses, expense)
	}
	if inv.Products == nil {
		inv.Products = []ProductLine{}
	}
	if inv.Expenses == nil {
		inv.Expenses = []ExpenseLine{}
	}

	if total, ok := firstAmount(r, storedTotalKeys...); ok {
		inv.StoredTotal = &total
	} else if total, ok := firstAmount(payload, storedTotalKeys...); ok {
		inv.StoredTotal = &total
	}
	return inv, nil
}

// NormalizeRows decodes rows, dropping unusable ones. The number of dropped
// rows is returned alongside.
func NormalizeRows(rows []map[string]any, opts NormalizeOptions) ([]Invoice, int) {
	out := make([]Invoice, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		inv, err := Normalize(row, opts)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, inv)
	}
	return out, dropped
}

// statusSpellings lists the raw values each non-default status has been
// stored as. Anything else, including null, reads as PENDING.
var statusSpellings = map[Status][]string{
	StatusDone:     {"done", "concluido", "concluído", "concluida", "concluída", "completed", "finalizado", "finalizada", "pago"},
	StatusCanceled: {"canceled", "cancelled", "cancelado", "cancelada"},
}

func parseStatus(raw string) Status {
	folded := shared.Fold(raw)
	for _, status := range []Status{StatusDone, StatusCanceled} {
		for _, spelling := range statusSpellings[status] {
			if folded == spelling {
				return status
			}
		}
	}
	return StatusPending
}

func inferKind(explicit, nature string) Kind {
	switch shared.Fold(explicit) {
	case "purchase", "compra", "entrada":
		return KindPurchase
	case "sale", "venda", "saida":
		return KindSale
	}
	if strings.Contains(shared.Fold(nature), "compra") {
		return KindPurchase
	}
	return KindSale
}

func resolveDueDate(r, payload fields, raw map[string]any, loc *time.Location) string {
	if iso := shared.ToISODate(r.first(dueKeys...), loc); iso != "" {
		return iso
	}
	if iso := shared.ToISODate(payload.first(dueKeys...), loc); iso != "" {
		return iso
	}
	if iso := scanDueDate(map[string]any(payload), 0, loc); iso != "" {
		return iso
	}
	return scanDueDate(withoutLineItems(raw), 0, loc)
}

// withoutLineItems drops product and expense arrays so a line item's own
// dates are never taken for the document's due date.
func withoutLineItems(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		if slices.Contains(productKeys, key) || slices.Contains(expenseKeys, key) {
			continue
		}
		out[k] = v
	}
	return out
}

// scanDueDate walks nested objects looking for a due/venc key whose value
// parses as a date. Keys are visited in sorted order so the result is stable.
func scanDueDate(v any, depth int, loc *time.Location) string {
	if depth > maxDueScanDepth {
		return ""
	}
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !dueKeyPattern.MatchString(k) {
				continue
			}
			if iso := shared.ToISODate(val[k], loc); iso != "" {
				return iso
			}
		}
		for _, k := range keys {
			if iso := scanDueDate(decodeJSONText(val[k]), depth+1, loc); iso != "" {
				return iso
			}
		}
	case []any:
		for _, item := range val {
			if iso := scanDueDate(item, depth+1, loc); iso != "" {
				return iso
			}
		}
	}
	return ""
}

// fields is a row with lowercased keys.
type fields map[string]any

func foldKeys(row map[string]any) fields {
	out := make(fields, len(row))
	for k, v := range row {
		key := strings.ToLower(strings.TrimSpace(k))
		if existing, ok := out[key]; ok && !isEmpty(existing) {
			continue
		}
		out[key] = v
	}
	return out
}

func (f fields) get(key string) any {
	if f == nil {
		return nil
	}
	return f[key]
}

func (f fields) first(keys ...string) any {
	for _, k := range keys {
		if v := f.get(k); !isEmpty(v) {
			return v
		}
	}
	return nil
}

func firstAmount(f fields, keys ...string) (decimal.Decimal, bool) {
	for _, k := range keys {
		v := f.get(k)
		if isEmpty(v) {
			continue
		}
		if m, ok := shared.ParseAmount(v); ok {
			return m, true
		}
	}
	return decimal.Zero, false
}

func firstList(f fields, keys ...string) []map[string]any {
	for _, k := range keys {
		if list := asList(f.get(k)); len(list) > 0 {
			return list
		}
	}
	return nil
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}

// decodeJSONText turns JSON carried as text (json/jsonb columns read as
// strings) into decoded values; other values pass through.
func decodeJSONText(v any) any {
	var raw []byte
	switch val := v.(type) {
	case string:
		raw = []byte(strings.TrimSpace(val))
	case []byte:
		raw = val
	case json.RawMessage:
		raw = val
	default:
		return v
	}
	if len(raw) == 0 || (raw[0] != '{' && raw[0] != '[') {
		return v
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return v
	}
	return decoded
}

func asObject(v any) map[string]any {
	switch val := decodeJSONText(v).(type) {
	case map[string]any:
		return val
	}
	return nil
}

func asList(v any) []map[string]any {
	switch val := decodeJSONText(v).(type) {
	case []map[string]any:
		return val
	case []any:
		out := make([]map[string]any, 0, len(val))
		for _, item := range val {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		return out
	}
	return nil
}

func partyName(v any) string {
	if obj := asObject(v); obj != nil {
		return scalarString(foldKeys(obj).first(partyNameKeys...))
	}
	return scalarString(v)
}

func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case decimal.Decimal:
		return val.String()
	case [16]byte:
		return uuid.UUID(val).String()
	case uuid.UUID:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case map[string]any, []any:
		return ""
	case driver.Valuer:
		inner, err := val.Value()
		if err != nil {
			return ""
		}
		if _, again := inner.(driver.Valuer); again {
			return ""
		}
		return scalarString(inner)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

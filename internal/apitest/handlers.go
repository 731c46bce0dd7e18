package apitest

import (
	"bytes"
	"encoding/csv"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/theirongolddev/tally/internal/model"
)

func (s *Server) register(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid payload")
	}

	s.mu.Lock()
	for _, a := range s.users {
		if strings.EqualFold(a.profile.Email, req.Email) {
			s.mu.Unlock()
			return echo.NewHTTPError(http.StatusBadRequest, "Email already registered")
		}
	}
	_, taken := s.users[req.Username]
	s.mu.Unlock()
	if taken {
		return echo.NewHTTPError(http.StatusBadRequest, "Username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	a := &account{
		id:           uuid.NewString(),
		passwordHash: hash,
		profile: model.User{
			Username:      req.Username,
			Email:         req.Email,
			MonthlyBudget: decimal.NewFromInt(2000),
			Currency:      model.DefaultCurrency,
		},
	}
	s.mu.Lock()
	s.users[req.Username] = a
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]string{"message": "User created", "user_id": a.id})
}

func (s *Server) login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid payload")
	}

	s.mu.Lock()
	a, ok := s.users[req.Username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(a.passwordHash, []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	tok, err := s.sign(req.Username, 24*time.Hour)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"access_token": tok,
		"token_type":   "bearer",
		"username":     req.Username,
	})
}

func (s *Server) me(c echo.Context) error {
	u, _ := s.User(username(c))
	return c.JSON(http.StatusOK, u)
}

func (s *Server) updateMe(c echo.Context) error {
	var req struct {
		FullName      *string  `json:"full_name"`
		MonthlyBudget *float64 `json:"monthly_budget"`
		Currency      *string  `json:"currency"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid payload")
	}

	s.mu.Lock()
	a := s.users[username(c)]
	if req.FullName != nil {
		a.profile.FullName = *req.FullName
	}
	if req.MonthlyBudget != nil {
		a.profile.MonthlyBudget = decimal.NewFromFloat(*req.MonthlyBudget)
	}
	if req.Currency != nil {
		a.profile.Currency = *req.Currency
	}
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]string{"message": "Profile updated successfully"})
}

// feed merges receipts and manual expenses newest first, like the backend.
func (s *Server) feed(user string, year, month int) []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Transaction
	for _, r := range s.receipts[user] {
		out = append(out, model.Transaction{
			ID:          r.ID,
			Type:        model.TypeReceipt,
			Description: r.Merchant(),
			Amount:      r.TotalAmount,
			Date:        r.Date(),
			Category:    "Receipt",
			ReceiptID:   r.ID,
		})
	}
	out = append(out, s.expenses[user]...)

	if year > 0 {
		filtered := out[:0]
		for _, tx := range out {
			if tx.Date.Year() == year && (month == 0 || int(tx.Date.Month()) == month) {
				filtered = append(filtered, tx)
			}
		}
		out = filtered
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out
}

func queryInt(c echo.Context, name string) int {
	n, _ := strconv.Atoi(c.QueryParam(name))
	return n
}

func (s *Server) listExpenses(c echo.Context) error {
	year := queryInt(c, "year")
	out := s.feed(username(c), year, queryInt(c, "month"))
	if year == 0 && len(out) > 100 {
		out = out[:100]
	}
	if out == nil {
		out = []model.Transaction{}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) recentTransactions(c echo.Context) error {
	year, month := queryInt(c, "year"), queryInt(c, "month")
	if year == 0 || month == 0 {
		year, month = 0, 0
	}
	out := s.feed(username(c), year, month)
	if len(out) > 5 {
		out = out[:5]
	}
	if out == nil {
		out = []model.Transaction{}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createExpense(c echo.Context) error {
	var req struct {
		Description string    `json:"description"`
		Amount      float64   `json:"amount"`
		Category    string    `json:"category"`
		Date        time.Time `json:"date"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid payload")
	}
	if req.Category == "" || req.Category == "Uncategorized" {
		req.Category = "Other"
	}
	id := s.AddExpense(username(c), req.Description, req.Category, req.Amount, req.Date)
	return c.JSON(http.StatusOK, map[string]string{"message": "Expense added", "id": id})
}

func (s *Server) deleteExpense(c echo.Context) error {
	user, id := username(c), c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.expenses[user]
	for i, e := range list {
		if e.ID == id {
			s.expenses[user] = append(list[:i:i], list[i+1:]...)
			return c.JSON(http.StatusOK, map[string]string{"message": "Expense deleted"})
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "Expense not found")
}

func (s *Server) summary(c echo.Context) error {
	now := time.Now().UTC()
	year, month := queryInt(c, "year"), queryInt(c, "month")
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}

	var txs []model.Transaction
	switch c.QueryParam("period") {
	case "month":
		txs = s.feed(username(c), year, month)
	case "year":
		txs = s.feed(username(c), year, 0)
	default:
		txs = s.feed(username(c), 0, 0)
	}

	totals := map[string]decimal.Decimal{}
	var order []string
	for _, tx := range txs {
		cat := tx.Category
		if tx.Type == model.TypeReceipt {
			cat = "Shopping"
		}
		if _, ok := totals[cat]; !ok {
			order = append(order, cat)
		}
		totals[cat] = totals[cat].Add(tx.Amount)
	}

	out := make([]model.CategoryTotal, 0, len(order))
	for _, cat := range order {
		out = append(out, model.CategoryTotal{Category: cat, Total: totals[cat]})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) forecast(c echo.Context) error {
	txs := s.feed(username(c), 0, 0)
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	advice := "Not enough data to forecast yet."
	if len(txs) > 0 {
		advice = "Spending looks steady."
	}
	return c.JSON(http.StatusOK, model.Forecast{PredictedAmount: total, Advice: advice})
}

func (s *Server) export(c echo.Context) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Date", "Merchant/Description", "Category", "Amount", "Source"})
	for _, tx := range s.Expenses(username(c)) {
		source := "Manual/Digital"
		if tx.ReceiptID != "" {
			source = "Receipt Scanner"
		}
		_ = w.Write([]string{tx.Date.Format("2006-01-02"), tx.Description, tx.Category, tx.Amount.String(), source})
	}
	w.Flush()

	c.Response().Header().Set("Content-Disposition", "attachment; filename=expenses_report.csv")
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

func (s *Server) listReceipts(c echo.Context) error {
	limit := queryInt(c, "amount")
	if limit <= 0 {
		limit = 10
	}
	search := strings.ToLower(c.QueryParam("search"))

	all := s.Receipts(username(c))
	sort.SliceStable(all, func(i, j int) bool { return all[i].UploadedAt.After(all[j].UploadedAt.Time) })

	out := []model.Receipt{}
	for _, r := range all {
		if search != "" &&
			!strings.Contains(strings.ToLower(r.MerchantName), search) &&
			!strings.Contains(strings.ToLower(r.RawText), search) {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	category := c.QueryParam("manual_category")
	merchant := strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename))
	now := model.Time{Time: time.Now().UTC()}
	total := decimal.NewFromInt(int64(len(data)))
	r := model.Receipt{
		ImageURL:      "/uploads/" + fh.Filename,
		UploadedAt:    now,
		MerchantName:  merchant,
		TotalAmount:   total,
		DateExtracted: now,
		Items: []model.ReceiptItem{
			{Description: merchant, Amount: total, Quantity: 1, Category: category},
		},
		RawText: string(data),
	}
	r.ID = s.AddReceipt(username(c), r)

	return c.JSON(http.StatusOK, model.UploadResult{
		Message:   "Receipt processed",
		ReceiptID: r.ID,
		ParsedData: model.ParsedReceipt{
			MerchantName:  r.MerchantName,
			TotalAmount:   r.TotalAmount,
			DateExtracted: r.DateExtracted,
			Items:         r.Items,
			RawText:       r.RawText,
		},
	})
}

func (s *Server) deleteReceipt(c echo.Context) error {
	user, id := username(c), c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.receipts[user]
	for i, r := range list {
		if r.ID != id {
			continue
		}
		s.receipts[user] = append(list[:i:i], list[i+1:]...)
		kept := s.expenses[user][:0]
		for _, e := range s.expenses[user] {
			if e.ReceiptID != id {
				kept = append(kept, e)
			}
		}
		s.expenses[user] = kept
		return c.JSON(http.StatusOK, map[string]string{"message": "Receipt and associated expenses deleted"})
	}
	return echo.NewHTTPError(http.StatusNotFound, "Receipt not found")
}

func (s *Server) budgetStatus(c echo.Context) error {
	s.mu.Lock()
	out := append([]model.Budget{}, s.budgets[username(c)]...)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, out)
}

func (s *Server) gameProgress(c echo.Context) error {
	user := username(c)
	s.mu.Lock()
	g, ok := s.game[user]
	points := s.users[user].profile.Points
	streak := s.users[user].profile.StreakCount
	s.mu.Unlock()
	if !ok {
		level := points/100 + 1
		g = model.GameProgress{Points: points, StreakCount: streak, Level: level, NextLevelPoints: level * 100}
	}
	if g.ActiveQuests == nil {
		g.ActiveQuests = []model.Quest{}
	}
	return c.JSON(http.StatusOK, g)
}

func (s *Server) advice(c echo.Context) error {
	txs := s.feed(username(c), queryInt(c, "year"), queryInt(c, "month"))
	total := decimal.Zero
	breakdown := map[string]decimal.Decimal{}
	for _, tx := range txs {
		total = total.Add(tx.Amount)
		breakdown[tx.Category] = breakdown[tx.Category].Add(tx.Amount)
	}
	return c.JSON(http.StatusOK, model.Advice{
		RawAdvice:         "Track your top category and set a weekly cap.",
		TotalSpent30Days:  total,
		TransactionCount:  len(txs),
		CategoryBreakdown: breakdown,
		Mock:              true,
	})
}

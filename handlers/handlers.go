package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"pechincha/models"
	"pechincha/repository"
	"pechincha/scheduler"
	"pechincha/scraper"
	"pechincha/services"

	"github.com/gorilla/mux"
)

type Handlers struct {
	productRepo   *repository.ProductRepository
	cascade       *scraper.Cascade
	affiliate     *scraper.ShopeeAffiliate
	vision        *scraper.VisionExtractor
	crawlClient   *scraper.AnyCrawlClient
	history       services.HistoryStore
	notifications services.NotificationStore
	taskManager   *scheduler.TaskManager
}

func NewHandlers(
	productRepo *repository.ProductRepository,
	cascade *scraper.Cascade,
	affiliate *scraper.ShopeeAffiliate,
	vision *scraper.VisionExtractor,
	crawlClient *scraper.AnyCrawlClient,
	history services.HistoryStore,
	notifications services.NotificationStore,
) *Handlers {
	h := &Handlers{
		productRepo:   productRepo,
		cascade:       cascade,
		affiliate:     affiliate,
		vision:        vision,
		crawlClient:   crawlClient,
		history:       history,
		notifications: notifications,
	}

	// Initialize task manager with 5 max workers
	h.taskManager = scheduler.NewTaskManager(cascade.Extract, 5)

	return h
}

// Close closes the handlers
func (h *Handlers) Close() {
	if h.taskManager != nil {
		h.taskManager.Stop()
	}
}

// HealthCheck reports service health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   "pechincha",
		"version":   "1.0.0",
	}
	writeJSON(w, http.StatusOK, response)
}

// AddProduct runs the extraction pipeline for a submitted URL: classify the
// store, rewrite affiliate links, extract, persist, and record the price.
func (h *Handlers) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req models.AddProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	url := req.URL
	if h.affiliate != nil && h.affiliate.IsMatch(url) {
		url = h.affiliate.Rewrite(url)
	}

	product, err := h.cascade.Extract(url)
	if err != nil {
		log.Printf("Failed to extract product from %s: %v", url, err)
		writeError(w, http.StatusInternalServerError, "Failed to extract product")
		return
	}

	tracked, err := h.productRepo.AddProduct(url, product)
	if err != nil {
		log.Printf("Failed to persist product: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save product")
		return
	}

	writeJSON(w, http.StatusCreated, models.ExtractResponse{
		Product:   product,
		ProductID: tracked.ID,
		Variation: h.recordPrice(tracked.ID, product),
	})
}

// recordPrice writes an extracted price into the ledger and the persisted
// observation log, and lets the notification engine compare it against the
// prior price. Returns the variation summary, or nil when the extraction
// carried no price.
func (h *Handlers) recordPrice(productID int, product *models.ScrapedProduct) *models.PriceVariation {
	if !product.HasPrice() {
		return nil
	}

	prior, hadPrior := h.history.Latest(productID)
	recorded := h.history.Record(models.PriceHistoryEntry{
		ProductID: productID,
		Price:     product.PriceValue(),
		Timestamp: time.Now(),
		Source:    product.Source,
	})
	if recorded {
		if err := h.productRepo.RecordObservation(productID, product.PriceValue(), product.Source); err != nil {
			log.Printf("Failed to record observation: %v", err)
		}
	}
	if hadPrior && prior.Price != product.PriceValue() {
		h.notifications.CheckPriceChange(productID, prior.Price, product.PriceValue())
	}

	v := h.history.Variation(productID)
	return &v
}

// GetProducts returns all tracked products
func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productRepo.GetProducts()
	if err != nil {
		log.Printf("Failed to get products: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get products")
		return
	}

	// Ensure we always return an array, even if empty
	if products == nil {
		products = []models.TrackedProduct{}
	}

	writeJSON(w, http.StatusOK, products)
}

// GetProductDetails returns details for a specific product
func (h *Handlers) GetProductDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.productRepo.GetProductByID(id)
	if err != nil {
		if err.Error() == "product not found" {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Printf("Failed to get product details: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get product details")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// DeleteProduct stops tracking a product
func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.productRepo.DeleteProduct(id); err != nil {
		log.Printf("Failed to delete product: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	h.history.Clear(id)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

// GetPriceHistory returns the recorded price observations for a product
func (h *Handlers) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	entries := h.history.History(id)
	if len(entries) == 0 {
		// Fall back to the persisted observations after a restart.
		persisted, err := h.productRepo.GetObservations(id, 100)
		if err != nil {
			log.Printf("Failed to get observations: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to get price history")
			return
		}
		entries = persisted
	}
	if entries == nil {
		entries = []models.PriceHistoryEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}

// GetPriceVariation returns the latest price movement for a product
func (h *Handlers) GetPriceVariation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.history.Variation(id))
}

// SetRule creates or replaces a notification rule for a product
func (h *Handlers) SetRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.SetRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	switch req.Type {
	case models.RulePriceDrop, models.RulePriceRise, models.RuleBackInStock:
	default:
		writeError(w, http.StatusBadRequest, "Invalid rule type")
		return
	}

	rule := models.NotificationRule{
		UserID:    req.UserID,
		ProductID: id,
		Type:      req.Type,
		Threshold: req.Threshold,
		Active:    true,
	}
	h.notifications.AddRule(rule)

	writeJSON(w, http.StatusCreated, rule)
}

// DeleteRule removes a notification rule
func (h *Handlers) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	ruleType := mux.Vars(r)["type"]

	h.notifications.RemoveRule(userID, id, ruleType)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Rule removed"})
}

// GetUserRules returns a user's notification rules
func (h *Handlers) GetUserRules(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	rules := h.notifications.GetUserRules(userID)
	if rules == nil {
		rules = []models.NotificationRule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

// GetNotifications returns a user's notifications, newest first
func (h *Handlers) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	notifications := h.notifications.GetUserNotifications(userID)
	if notifications == nil {
		notifications = []models.Notification{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"unread_count":  h.notifications.UnreadCount(userID),
	})
}

// MarkNotificationRead flags a notification as read
func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	notificationID, err := strconv.ParseInt(mux.Vars(r)["notificationId"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	if !h.notifications.MarkAsRead(userID, notificationID) {
		writeError(w, http.StatusNotFound, "Notification not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// VisionExtract extracts product data from an uploaded screenshot
func (h *Handlers) VisionExtract(w http.ResponseWriter, r *http.Request) {
	if h.vision == nil || !h.vision.Available() {
		writeError(w, http.StatusServiceUnavailable, "Vision extraction is not configured")
		return
	}

	var req models.VisionExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ImageBase64 == "" {
		writeError(w, http.StatusBadRequest, "image_base64 is required")
		return
	}

	storeName := "Loja Online"
	if req.URL != "" {
		storeName = scraper.ClassifyStore(req.URL).Name
	}

	product, err := h.vision.ExtractFromImage(req.ImageBase64, "image/png", storeName)
	if err != nil {
		log.Printf("Vision extraction failed: %v", err)
		writeError(w, http.StatusUnprocessableEntity, "Could not read product from image")
		return
	}

	writeJSON(w, http.StatusOK, models.ExtractResponse{Product: product})
}

// ExtractAsync queues an extraction and returns the task immediately
func (h *Handlers) ExtractAsync(w http.ResponseWriter, r *http.Request) {
	var req models.AddProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	task := h.taskManager.SubmitTask(req.URL)
	writeJSON(w, http.StatusAccepted, task)
}

// GetTaskStatus returns the state of an async extraction task
func (h *Handlers) GetTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskId"]

	task, exists := h.taskManager.GetTask(taskID)
	if !exists {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// GetTaskStats returns task manager statistics
func (h *Handlers) GetTaskStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.taskManager.GetStats())
}

// GetCrawlCredits reports the remaining crawl provider balance
func (h *Handlers) GetCrawlCredits(w http.ResponseWriter, r *http.Request) {
	if h.crawlClient == nil || !h.crawlClient.Available() {
		writeError(w, http.StatusServiceUnavailable, "Crawl provider is not configured")
		return
	}

	credits, err := h.crawlClient.RemainingCredits()
	if err != nil {
		log.Printf("Failed to query crawl credits: %v", err)
		writeError(w, http.StatusBadGateway, "Failed to query crawl credits")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"credits": credits})
}

// pathID parses an integer path variable, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

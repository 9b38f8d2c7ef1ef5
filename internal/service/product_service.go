package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"modelhaus/api/internal/config"
	"modelhaus/api/internal/ids"
	"modelhaus/api/internal/media/sniffer"
	"modelhaus/api/internal/models"
	"modelhaus/api/internal/staging"
	"modelhaus/api/internal/storage"
	"modelhaus/api/internal/uploadflow"
)

// CompanyResolver maps a caller to the company whose collection receives
// the save.
type CompanyResolver interface {
	CompanyOf(ctx context.Context, account string) (string, error)
}

// ProductInserter appends one product document to a company's collection
// and returns the collection name.
type ProductInserter interface {
	Insert(ctx context.Context, company string, product models.Product) (string, error)
}

// ObjectPutter places product files into the object store.
type ObjectPutter interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

var (
	errNameRequired     = errors.New("商品名稱為必填欄位")
	errCategoryRequired = errors.New("商品種類為必填欄位")
	errPriceNotPositive = errors.New("商品價格必須大於 0")
)

// ProductService reconciles a save request with the files the processing
// service may already have placed, derives the per-tenant location, and
// persists the product document.
type ProductService struct {
	profiles CompanyResolver
	products ProductInserter
	store    ObjectPutter
	http     *http.Client
	cfg      config.UploadConfig
	log      zerolog.Logger
}

func NewProductService(
	profiles CompanyResolver,
	products ProductInserter,
	store ObjectPutter,
	cfg config.UploadConfig,
	log zerolog.Logger,
) *ProductService {
	return &ProductService{
		profiles: profiles,
		products: products,
		store:    store,
		http:     &http.Client{},
		cfg:      cfg,
		log:      log.With().Str("component", "products").Logger(),
	}
}

// SaveProduct implements uploadflow.Saver.
func (s *ProductService) SaveProduct(ctx context.Context, req uploadflow.SaveRequest) (uploadflow.SaveResult, error) {
	if err := validateSave(req); err != nil {
		return uploadflow.SaveResult{}, err
	}

	company, err := s.profiles.CompanyOf(ctx, req.Username)
	if err != nil {
		return uploadflow.SaveResult{}, fmt.Errorf("resolve company: %w", err)
	}

	productID, folder := resolveIdentity(req)

	imagePaths := s.placeImages(ctx, folder, req.Images)
	modelPath := s.placeModel(ctx, folder, req.ModelURL)

	now := time.Now().UTC()
	product := models.Product{
		ProductID:   productID,
		Name:        req.Name,
		Price:       req.Price,
		Category:    req.Category,
		Description: req.Description,
		URL:         req.URL,
		ModelURL:    modelPath,
		Brand:       company,
		Images:      imagePaths,
		FolderPath:  "uploads/products/" + folder,
		CreatedBy:   req.Username,
		Status:      models.ProductStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !req.Size.Empty() {
		size := req.Size
		product.SizeOptions = &size
	}

	collection, err := s.products.Insert(ctx, company, product)
	if err != nil {
		return uploadflow.SaveResult{}, err
	}

	s.log.Info().
		Str("product_id", productID).
		Str("collection", collection).
		Int("images", len(imagePaths)).
		Msg("product saved")

	return uploadflow.SaveResult{
		Message:     "商品儲存成功",
		ProductID:   productID,
		ProductName: product.Name,
		Collection:  collection,
		FolderPath:  product.FolderPath,
		ModelPath:   modelPath,
		ImageCount:  len(imagePaths),
	}, nil
}

func validateSave(req uploadflow.SaveRequest) error {
	if req.Name == "" {
		return errNameRequired
	}
	if req.Category == "" {
		return errCategoryRequired
	}
	if req.Price <= 0 {
		return errPriceNotPositive
	}
	return nil
}

// resolveIdentity honors a pre-assigned product id and folder from the
// processing service; without one it mints a fresh identity.
func resolveIdentity(req uploadflow.SaveRequest) (productID, folder string) {
	if req.ProductID == "" {
		productID = ids.New()
		return productID, storage.ProductFolderName(req.Name, productID)
	}
	if req.ProductFolder != "" {
		return req.ProductID, req.ProductFolder
	}
	return req.ProductID, req.Name + "_product_" + req.ProductID
}

// placeImages stores the modal images as img1, img2, … in submission
// order. Files that are not really images or exceed the size limit are
// skipped; their slot number is kept so the numbering matches the
// submitted order.
func (s *ProductService) placeImages(ctx context.Context, folder string, images []staging.StagedFile) []string {
	paths := make([]string, 0, len(images))
	for i, img := range images {
		if img.Size > s.cfg.MaxFileSize || int64(len(img.Data)) > s.cfg.MaxFileSize {
			continue
		}
		detected, err := sniffer.DetectHead(img.Data)
		if err != nil {
			s.log.Debug().Str("file", img.Name).Msg("skipping non-image upload")
			continue
		}

		key := storage.ImageKey(folder, i+1, detected.Ext)
		if err := s.store.Put(ctx, key, img.Data, detected.MIME); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("image placement failed")
			continue
		}
		paths = append(paths, storage.StoredPath(key))
	}
	return paths
}

// placeModel resolves the model reference. A path the processing service
// already placed under the product tree is stored as-is; an external URL
// is downloaded and stored here. A failed download degrades to an empty
// model path rather than failing the save.
func (s *ProductService) placeModel(ctx context.Context, folder, modelURL string) string {
	if modelURL == "" {
		return ""
	}
	if storage.IsInternalModelPath(modelURL) {
		return modelURL
	}

	data, err := s.download(ctx, modelURL)
	if err != nil {
		s.log.Warn().Err(err).Str("url", modelURL).Msg("model download failed")
		return ""
	}

	key := storage.ModelKey(folder)
	if err := s.store.Put(ctx, key, data, "model/gltf-binary"); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("model placement failed")
		return ""
	}
	return storage.StoredPath(key)
}

func (s *ProductService) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

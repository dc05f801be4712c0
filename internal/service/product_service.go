package service

import (
	"context"

	"pantrio/internal/dto"
	"pantrio/internal/model"
	"pantrio/internal/quantity"
	"pantrio/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductService covers catalog CRUD plus the restock views layered on top
// of the stock evaluator.
type ProductService interface {
	Create(ctx context.Context, userID uuid.UUID, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, userID, productID uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, userID uuid.UUID, filter dto.ProductFilter) ([]dto.ProductResponse, int64, error)
	Update(ctx context.Context, userID, productID uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, userID, productID uuid.UUID) error

	// NeedingRestock returns the evaluator output restricted to products whose
	// stock is exhausted or below threshold.
	NeedingRestock(ctx context.Context, userID uuid.UUID) ([]dto.RestockState, error)

	CreateLocation(ctx context.Context, userID uuid.UUID, req dto.CreateLocationRequest) (*dto.LocationResponse, error)
	ListLocations(ctx context.Context, userID uuid.UUID) ([]dto.LocationResponse, error)
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	batches    repository.BatchRepository
	stock      StockService
}

func NewProductService(products repository.ProductRepository, categories repository.CategoryRepository, batches repository.BatchRepository, stock StockService) ProductService {
	return &productService{products: products, categories: categories, batches: batches, stock: stock}
}

func (s *productService) Create(ctx context.Context, userID uuid.UUID, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	exists, err := s.products.NameExists(ctx, userID, req.Name, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict
	}

	threshold := decimal.NewFromInt(1)
	if req.Threshold != "" {
		threshold, err = quantity.Parse(req.Threshold)
		if err != nil {
			return nil, newValidationError("threshold", err.Error())
		}
		if threshold.IsNegative() {
			return nil, newValidationError("threshold", "must not be negative")
		}
	}

	unit := req.Unit
	if unit == "" {
		unit = "piece"
	}
	autoAdd := true
	if req.AutoAddToList != nil {
		autoAdd = *req.AutoAddToList
	}

	product := &model.Product{
		UserID:        userID,
		Name:          req.Name,
		Unit:          unit,
		Threshold:     threshold,
		AutoAddToList: autoAdd,
		Barcode:       req.Barcode,
		Brand:         req.Brand,
		Notes:         req.Notes,
	}
	if req.CategoryID != nil {
		categoryID, err := s.ownedCategoryID(ctx, userID, *req.CategoryID)
		if err != nil {
			return nil, err
		}
		product.CategoryID = categoryID
	}
	if req.DefaultLocationID != nil {
		locationID, err := s.ownedLocationID(ctx, userID, *req.DefaultLocationID)
		if err != nil {
			return nil, err
		}
		product.DefaultLocationID = locationID
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, product)
}

func (s *productService) Get(ctx context.Context, userID, productID uuid.UUID) (*dto.ProductResponse, error) {
	product, err := s.owned(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, product)
}

func (s *productService) List(ctx context.Context, userID uuid.UUID, filter dto.ProductFilter) ([]dto.ProductResponse, int64, error) {
	products, total, err := s.products.List(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}
	states, err := s.stock.EvaluateRestock(ctx, products)
	if err != nil {
		return nil, 0, err
	}

	out := make([]dto.ProductResponse, len(products))
	for i := range products {
		out[i] = productToResponse(&products[i])
		out[i].TotalStock = states[i].TotalStock
		out[i].IsBelowThreshold = states[i].IsBelowThreshold
		out[i].NeedsRestock = states[i].NeedsRestock
	}
	return out, total, nil
}

func (s *productService) Update(ctx context.Context, userID, productID uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.owned(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != product.Name {
		exists, err := s.products.NameExists(ctx, userID, *req.Name, &product.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrConflict
		}
		product.Name = *req.Name
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
	}
	if req.Threshold != nil {
		threshold, err := quantity.Parse(*req.Threshold)
		if err != nil {
			return nil, newValidationError("threshold", err.Error())
		}
		if threshold.IsNegative() {
			return nil, newValidationError("threshold", "must not be negative")
		}
		product.Threshold = threshold
	}
	if req.AutoAddToList != nil {
		product.AutoAddToList = *req.AutoAddToList
	}
	if req.CategoryID != nil {
		if *req.CategoryID == "" {
			product.CategoryID = nil
			product.Category = nil
		} else {
			categoryID, err := s.ownedCategoryID(ctx, userID, *req.CategoryID)
			if err != nil {
				return nil, err
			}
			product.CategoryID = categoryID
			product.Category = nil
		}
	}
	if req.DefaultLocationID != nil {
		if *req.DefaultLocationID == "" {
			product.DefaultLocationID = nil
		} else {
			locationID, err := s.ownedLocationID(ctx, userID, *req.DefaultLocationID)
			if err != nil {
				return nil, err
			}
			product.DefaultLocationID = locationID
		}
	}
	if req.Barcode != nil {
		product.Barcode = *req.Barcode
	}
	if req.Brand != nil {
		product.Brand = *req.Brand
	}
	if req.Notes != nil {
		product.Notes = *req.Notes
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, product)
}

func (s *productService) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	product, err := s.owned(ctx, userID, productID)
	if err != nil {
		return err
	}
	// Deleting a product with remaining stock would orphan live batches.
	total, err := s.batches.TotalByProduct(ctx, product.ID)
	if err != nil {
		return err
	}
	if total.IsPositive() {
		return ErrConflict
	}
	return s.products.Delete(ctx, product.ID)
}

func (s *productService) NeedingRestock(ctx context.Context, userID uuid.UUID) ([]dto.RestockState, error) {
	products, err := s.products.ListAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	states, err := s.stock.EvaluateRestock(ctx, products)
	if err != nil {
		return nil, err
	}
	out := states[:0]
	for _, st := range states {
		if st.NeedsRestock {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *productService) CreateLocation(ctx context.Context, userID uuid.UUID, req dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	location := &model.Location{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.products.CreateLocation(ctx, location); err != nil {
		return nil, err
	}
	return &dto.LocationResponse{
		ID:          location.ID.String(),
		Name:        location.Name,
		Description: location.Description,
	}, nil
}

func (s *productService) ListLocations(ctx context.Context, userID uuid.UUID) ([]dto.LocationResponse, error) {
	locations, err := s.products.ListLocations(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LocationResponse, len(locations))
	for i, l := range locations {
		out[i] = dto.LocationResponse{ID: l.ID.String(), Name: l.Name, Description: l.Description}
	}
	return out, nil
}

func (s *productService) owned(ctx context.Context, userID, productID uuid.UUID) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil || product.UserID != userID {
		return nil, ErrNotFound
	}
	return product, nil
}

func (s *productService) ownedCategoryID(ctx context.Context, userID uuid.UUID, raw string) (*uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, newValidationError("category_id", "invalid id")
	}
	category, err := s.categories.FindByID(ctx, id)
	if err != nil || category.UserID != userID {
		return nil, newValidationError("category_id", "unknown category")
	}
	return &category.ID, nil
}

func (s *productService) ownedLocationID(ctx context.Context, userID uuid.UUID, raw string) (*uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, newValidationError("default_location_id", "invalid id")
	}
	location, err := s.products.FindLocationByID(ctx, id)
	if err != nil || location.UserID != userID {
		return nil, newValidationError("default_location_id", "unknown location")
	}
	return &location.ID, nil
}

func (s *productService) toResponse(ctx context.Context, p *model.Product) (*dto.ProductResponse, error) {
	states, err := s.stock.EvaluateRestock(ctx, []model.Product{*p})
	if err != nil {
		return nil, err
	}
	resp := productToResponse(p)
	resp.TotalStock = states[0].TotalStock
	resp.IsBelowThreshold = states[0].IsBelowThreshold
	resp.NeedsRestock = states[0].NeedsRestock
	return &resp, nil
}

func productToResponse(p *model.Product) dto.ProductResponse {
	resp := dto.ProductResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		Unit:          p.Unit,
		Threshold:     p.Threshold,
		AutoAddToList: p.AutoAddToList,
		Barcode:       p.Barcode,
		Brand:         p.Brand,
		Notes:         p.Notes,
	}
	if p.CategoryID != nil {
		cid := p.CategoryID.String()
		resp.CategoryID = &cid
	}
	if p.Category != nil {
		resp.CategoryName = p.Category.Name
	}
	if p.DefaultLocationID != nil {
		lid := p.DefaultLocationID.String()
		resp.DefaultLocationID = &lid
	}
	return resp
}

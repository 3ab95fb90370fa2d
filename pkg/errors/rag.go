package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// RAG 服务代码: 20
// 错误码格式: AABBCCC
// - AA: 20 (RAG 服务)
// - BB: 类别代码
// - CCC: 序号

var (
	// 请求参数错误 (类别 01)
	ErrBadIdentifier = Register(New(MakeCode(ServiceRAG, CategoryRequest, 1), http.StatusBadRequest, codes.InvalidArgument, "Bad document identifier", "文档标识无效"))
	ErrExtraction    = Register(New(MakeCode(ServiceRAG, CategoryRequest, 2), http.StatusUnprocessableEntity, codes.InvalidArgument, "Document text extraction failed", "文档文本提取失败"))
	ErrNoDocuments   = Register(New(MakeCode(ServiceRAG, CategoryRequest, 3), http.StatusBadRequest, codes.InvalidArgument, "No pdf files were uploaded", "未上传 PDF 文件"))

	// 资源错误 (类别 04)
	ErrDocumentNotFound = Register(New(MakeCode(ServiceRAG, CategoryResource, 1), http.StatusNotFound, codes.NotFound, "File not found or cannot be read", "文件不存在或无法读取"))

	// 流水线错误 (类别 07)
	ErrEmbeddingFailed = Register(New(MakeCode(ServiceRAG, CategoryInternal, 1), http.StatusBadGateway, codes.Unavailable, "No chunk could be embedded", "所有文本块向量化失败"))

	// 向量存储错误 (类别 08)
	ErrStoreUnavailable = Register(New(MakeCode(ServiceRAG, CategoryDatabase, 1), http.StatusServiceUnavailable, codes.Unavailable, "Vector store unavailable", "向量存储不可用"))
	ErrStoreWrite       = Register(New(MakeCode(ServiceRAG, CategoryDatabase, 2), http.StatusInternalServerError, codes.Internal, "Vector store write failed", "向量存储写入失败"))
	ErrStoreRead        = Register(New(MakeCode(ServiceRAG, CategoryDatabase, 3), http.StatusInternalServerError, codes.Internal, "Vector store read failed", "向量存储读取失败"))

	// 外部模型服务错误 (类别 10)
	ErrTransport         = Register(New(MakeCode(ServiceRAG, CategoryNetwork, 1), http.StatusBadGateway, codes.Unavailable, "Model service request failed", "模型服务请求失败"))
	ErrMalformedResponse = Register(New(MakeCode(ServiceRAG, CategoryNetwork, 2), http.StatusBadGateway, codes.Internal, "Malformed model service response", "模型服务响应格式错误"))

	// 配置错误 (类别 12)
	ErrConfig   = Register(New(MakeCode(ServiceRAG, CategoryConfig, 1), http.StatusInternalServerError, codes.FailedPrecondition, "Invalid configuration", "配置无效"))
	ErrChunking = Register(New(MakeCode(ServiceRAG, CategoryConfig, 2), http.StatusInternalServerError, codes.FailedPrecondition, "Invalid chunk size", "分块大小无效"))
)

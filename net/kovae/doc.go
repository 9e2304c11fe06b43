// Package kovae implements the Koopman variational autoencoder: a recurrent VAE
// whose prior latent trajectories are pushed towards linear dynamics z̄ₜ₊₁ = z̄ₜA.
//
// The model owns two gorgonia graphs with fixed batch size. The training graph
// holds the posterior encoder, the prior, the decoder and the loss; the
// sampling graph holds only the prior and the decoder and reads the weights of
// the training graph.
package kovae
